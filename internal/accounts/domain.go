package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Defaults stamped on freshly bootstrapped accounts.
const (
	DefaultPlanTier      = "basic"
	DefaultPaymentStatus = "active"
	InitialProfileStep   = "account"
	InitialOnboardStep   = "welcome"
)

// TimestampLayout matches ISO-8601 with millisecond precision in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way records store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// UserRecord is the account document keyed by the identity provider's uid.
type UserRecord struct {
	UserID      string  `json:"userId" dynamodbav:"userId"`
	Email       string  `json:"email" dynamodbav:"email"`
	DisplayName *string `json:"displayName" dynamodbav:"displayName"`
	PhoneNumber *string `json:"phoneNumber" dynamodbav:"phoneNumber"`
	CreatedAt   string  `json:"createdAt" dynamodbav:"createdAt"`
	LastLoginAt string  `json:"lastLoginAt" dynamodbav:"lastLoginAt"`

	IsActive   bool `json:"isActive" dynamodbav:"isActive"`
	IsVerified bool `json:"isVerified" dynamodbav:"isVerified"`

	Farms         map[string]FarmSummary `json:"farms" dynamodbav:"farms"`
	PrimaryFarmID *string                `json:"primaryFarmId" dynamodbav:"primaryFarmId"`
	FarmRole      *string                `json:"farmRole" dynamodbav:"farmRole"`

	PlanTier       string       `json:"planTier" dynamodbav:"planTier"`
	PlanStartDate  string       `json:"planStartDate" dynamodbav:"planStartDate"`
	PlanExpiryDate *string      `json:"planExpiryDate" dynamodbav:"planExpiryDate"`
	PaymentStatus  string       `json:"paymentStatus" dynamodbav:"paymentStatus"`
	PlanFeatures   PlanFeatures `json:"planFeatures" dynamodbav:"planFeatures"`

	ProfileCompleted      int          `json:"profileCompleted" dynamodbav:"profileCompleted"`
	ProfileStepsCompleted ProfileSteps `json:"profileStepsCompleted" dynamodbav:"profileStepsCompleted"`

	TotalLogins  int          `json:"totalLogins" dynamodbav:"totalLogins"`
	LastActiveAt string       `json:"lastActiveAt" dynamodbav:"lastActiveAt"`
	FeatureUsage FeatureUsage `json:"featureUsage" dynamodbav:"featureUsage"`

	Preferences Preferences `json:"preferences" dynamodbav:"preferences"`

	TeamIDs       []string      `json:"teamIds" dynamodbav:"teamIds"`
	FarmTypes     FarmTypes     `json:"farmTypes" dynamodbav:"farmTypes"`
	FieldTracking FieldTracking `json:"fieldTracking" dynamodbav:"fieldTracking"`

	Notes          string   `json:"notes" dynamodbav:"notes"`
	Flags          []string `json:"flags" dynamodbav:"flags"`
	InternalRating int      `json:"internalRating" dynamodbav:"internalRating"`
	SupportTickets int      `json:"supportTickets" dynamodbav:"supportTickets"`

	Onboarding      Onboarding      `json:"onboarding" dynamodbav:"onboarding"`
	CustomClaims    CustomClaims    `json:"customClaims" dynamodbav:"customClaims"`
	WeatherSettings WeatherSettings `json:"weatherSettings" dynamodbav:"weatherSettings"`
	Integrations    Integrations    `json:"integrations" dynamodbav:"integrations"`

	UpdatedAt string `json:"updatedAt" dynamodbav:"updatedAt"`
}

// FarmSummary is the per-farm entry embedded in a user record.
type FarmSummary struct {
	FarmName  string  `json:"farmName" dynamodbav:"farmName"`
	Location  string  `json:"location" dynamodbav:"location"`
	Size      float64 `json:"size" dynamodbav:"size"`
	SizeUnit  string  `json:"sizeUnit" dynamodbav:"sizeUnit"`
	IsDefault bool    `json:"isDefault" dynamodbav:"isDefault"`
	CreatedAt string  `json:"createdAt" dynamodbav:"createdAt"`
}

// PlanFeatures lists the entitlements of a plan tier.
type PlanFeatures struct {
	MaxFarms            int  `json:"maxFarms" dynamodbav:"maxFarms"`
	MaxUsers            int  `json:"maxUsers" dynamodbav:"maxUsers"`
	CropTracking        bool `json:"cropTracking" dynamodbav:"cropTracking"`
	LivestockTracking   bool `json:"livestockTracking" dynamodbav:"livestockTracking"`
	EquipmentTracking   bool `json:"equipmentTracking" dynamodbav:"equipmentTracking"`
	AdvancedReporting   bool `json:"advancedReporting" dynamodbav:"advancedReporting"`
	InventoryManagement bool `json:"inventoryManagement" dynamodbav:"inventoryManagement"`
	FinancialTools      bool `json:"financialTools" dynamodbav:"financialTools"`
}

// ProfileSteps tracks which onboarding sections are filled in.
type ProfileSteps struct {
	BasicInfo      bool `json:"basicInfo" dynamodbav:"basicInfo"`
	FarmDetails    bool `json:"farmDetails" dynamodbav:"farmDetails"`
	TeamMembers    bool `json:"teamMembers" dynamodbav:"teamMembers"`
	CropSetup      bool `json:"cropSetup" dynamodbav:"cropSetup"`
	LivestockSetup bool `json:"livestockSetup" dynamodbav:"livestockSetup"`
	EquipmentSetup bool `json:"equipmentSetup" dynamodbav:"equipmentSetup"`
}

// FeatureUsage counts feature visits. Counters only grow.
type FeatureUsage struct {
	CropManagement      int `json:"cropManagement" dynamodbav:"cropManagement"`
	LivestockManagement int `json:"livestockManagement" dynamodbav:"livestockManagement"`
	EquipmentManagement int `json:"equipmentManagement" dynamodbav:"equipmentManagement"`
	InventoryManagement int `json:"inventoryManagement" dynamodbav:"inventoryManagement"`
	FinancialManagement int `json:"financialManagement" dynamodbav:"financialManagement"`
	Reporting           int `json:"reporting" dynamodbav:"reporting"`
	Planning            int `json:"planning" dynamodbav:"planning"`
}

// Preferences holds dashboard settings.
type Preferences struct {
	Theme               string `json:"theme" dynamodbav:"theme"`
	EmailNotifications  bool   `json:"emailNotifications" dynamodbav:"emailNotifications"`
	MarketingEmails     bool   `json:"marketingEmails" dynamodbav:"marketingEmails"`
	MeasurementSystem   string `json:"measurementSystem" dynamodbav:"measurementSystem"`
	Currency            string `json:"currency" dynamodbav:"currency"`
	DateFormat          string `json:"dateFormat" dynamodbav:"dateFormat"`
	StartOfWeek         string `json:"startOfWeek" dynamodbav:"startOfWeek"`
	WeatherAlerts       bool   `json:"weatherAlerts" dynamodbav:"weatherAlerts"`
	MobileNotifications bool   `json:"mobileNotifications" dynamodbav:"mobileNotifications"`
}

// FarmTypes flags the kinds of operation a user runs.
type FarmTypes struct {
	Crops       bool `json:"crops" dynamodbav:"crops"`
	Livestock   bool `json:"livestock" dynamodbav:"livestock"`
	Dairy       bool `json:"dairy" dynamodbav:"dairy"`
	Poultry     bool `json:"poultry" dynamodbav:"poultry"`
	Organic     bool `json:"organic" dynamodbav:"organic"`
	Hydroponics bool `json:"hydroponics" dynamodbav:"hydroponics"`
	Aquaponics  bool `json:"aquaponics" dynamodbav:"aquaponics"`
	Other       bool `json:"other" dynamodbav:"other"`
}

// FieldTracking selects which field metrics are recorded.
type FieldTracking struct {
	SoilTypes      bool `json:"soilTypes" dynamodbav:"soilTypes"`
	SoilHealth     bool `json:"soilHealth" dynamodbav:"soilHealth"`
	CropRotation   bool `json:"cropRotation" dynamodbav:"cropRotation"`
	Irrigation     bool `json:"irrigation" dynamodbav:"irrigation"`
	Fertilization  bool `json:"fertilization" dynamodbav:"fertilization"`
	PestManagement bool `json:"pestManagement" dynamodbav:"pestManagement"`
	YieldData      bool `json:"yieldData" dynamodbav:"yieldData"`
	WeatherImpact  bool `json:"weatherImpact" dynamodbav:"weatherImpact"`
}

// Onboarding tracks the guided setup flow.
type Onboarding struct {
	IsComplete     bool     `json:"isComplete" dynamodbav:"isComplete"`
	CurrentStep    string   `json:"currentStep" dynamodbav:"currentStep"`
	CompletedSteps []string `json:"completedSteps" dynamodbav:"completedSteps"`
	LastUpdated    string   `json:"lastUpdated" dynamodbav:"lastUpdated"`
}

// CustomClaims mirrors the authorization claims granted to the user.
type CustomClaims struct {
	Admin        bool     `json:"admin" dynamodbav:"admin"`
	Owner        bool     `json:"owner" dynamodbav:"owner"`
	Manager      bool     `json:"manager" dynamodbav:"manager"`
	Worker       bool     `json:"worker" dynamodbav:"worker"`
	ReadOnly     bool     `json:"readOnly" dynamodbav:"readOnly"`
	Roles        []string `json:"roles" dynamodbav:"roles"`
	Permissions  []string `json:"permissions" dynamodbav:"permissions"`
	Subscription string   `json:"subscription" dynamodbav:"subscription"`
	Beta         bool     `json:"beta" dynamodbav:"beta"`
}

// WeatherSettings configures saved locations and alert kinds.
type WeatherSettings struct {
	Locations  []string      `json:"locations" dynamodbav:"locations"`
	AlertTypes WeatherAlerts `json:"alertTypes" dynamodbav:"alertTypes"`
}

// WeatherAlerts toggles individual alert kinds.
type WeatherAlerts struct {
	Frost       bool `json:"frost" dynamodbav:"frost"`
	HeavyRain   bool `json:"heavyRain" dynamodbav:"heavyRain"`
	Drought     bool `json:"drought" dynamodbav:"drought"`
	ExtremeHeat bool `json:"extremeHeat" dynamodbav:"extremeHeat"`
	StrongWinds bool `json:"strongWinds" dynamodbav:"strongWinds"`
}

// Integrations flags connected third-party services.
type Integrations struct {
	WeatherService    bool `json:"weatherService" dynamodbav:"weatherService"`
	EquipmentAPI      bool `json:"equipmentAPI" dynamodbav:"equipmentAPI"`
	FinancialSoftware bool `json:"financialSoftware" dynamodbav:"financialSoftware"`
	MarketplaceAPI    bool `json:"marketplaceAPI" dynamodbav:"marketplaceAPI"`
	SensorNetworks    bool `json:"sensorNetworks" dynamodbav:"sensorNetworks"`
}

// ProfileRecord tracks profile completion. It shares the user's key and is
// only ever written together with its UserRecord.
type ProfileRecord struct {
	UserID            string       `json:"userId" dynamodbav:"userId"`
	ProfileID         string       `json:"profileId" dynamodbav:"profileId"`
	Email             string       `json:"email" dynamodbav:"email"`
	CurrentStep       string       `json:"currentStep" dynamodbav:"currentStep"`
	CompletionPercent int          `json:"completionPercent" dynamodbav:"completionPercent"`
	StepsCompleted    ProfileSteps `json:"stepsCompleted" dynamodbav:"stepsCompleted"`
	CreatedAt         string       `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt         string       `json:"updatedAt" dynamodbav:"updatedAt"`
}

// Account pairs a user with its profile.
type Account struct {
	User    UserRecord    `json:"user"`
	Profile ProfileRecord `json:"profile"`
}

// NewUserRecord builds the default user document for a first signup.
func NewUserRecord(userID, email string, now time.Time) UserRecord {
	ts := Timestamp(now)
	return UserRecord{
		UserID:      userID,
		Email:       email,
		CreatedAt:   ts,
		LastLoginAt: ts,
		IsActive:    true,
		IsVerified:  false,
		Farms:       map[string]FarmSummary{},

		PlanTier:      DefaultPlanTier,
		PlanStartDate: ts,
		PaymentStatus: DefaultPaymentStatus,
		PlanFeatures: PlanFeatures{
			MaxFarms:          1,
			MaxUsers:          5,
			CropTracking:      true,
			LivestockTracking: true,
			EquipmentTracking: true,
		},

		TotalLogins:  1,
		LastActiveAt: ts,

		Preferences: Preferences{
			Theme:             "light",
			MeasurementSystem: "imperial",
			Currency:          "USD",
			DateFormat:        "MM/DD/YYYY",
			StartOfWeek:       "sunday",
		},

		TeamIDs: []string{},
		FieldTracking: FieldTracking{
			SoilTypes:      true,
			SoilHealth:     true,
			CropRotation:   true,
			Irrigation:     true,
			Fertilization:  true,
			PestManagement: true,
			YieldData:      true,
			WeatherImpact:  true,
		},

		Flags: []string{},

		Onboarding: Onboarding{
			CurrentStep:    InitialOnboardStep,
			CompletedSteps: []string{},
			LastUpdated:    ts,
		},
		CustomClaims: CustomClaims{
			Roles:        []string{},
			Permissions:  []string{"profile:read", "profile:edit"},
			Subscription: DefaultPlanTier,
		},
		WeatherSettings: WeatherSettings{
			Locations: []string{},
			AlertTypes: WeatherAlerts{
				Frost:       true,
				HeavyRain:   true,
				Drought:     true,
				ExtremeHeat: true,
				StrongWinds: true,
			},
		},

		UpdatedAt: ts,
	}
}

// NewProfileRecord builds the profile paired with a new user record.
func NewProfileRecord(userID, email string, now time.Time) ProfileRecord {
	ts := Timestamp(now)
	return ProfileRecord{
		UserID:      userID,
		ProfileID:   uuid.NewString(),
		Email:       email,
		CurrentStep: InitialProfileStep,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}
