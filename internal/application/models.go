package application

import "time"

// Principal represents the identity invoking a service method. Admin status
// is never cached on the principal; privileged operations re-derive it from
// the stored claim on every call.
type Principal struct {
	UID string
}

// Identity is an anonymous caller identity issued by the service. The admin
// claim attaches to the identity's UID.
type Identity struct {
	UID       string
	Token     string
	CreatedAt time.Time
}

// Jam represents a confirmed jam occurrence.
type Jam struct {
	ID        string
	Date      string
	Day       string
	Venue     string
	Time      string
	MapLink   string
	Cancelled bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JamInput captures caller provided jam fields.
type JamInput struct {
	Date    string
	Day     string
	Venue   string
	Time    string
	MapLink string
}

// SiteConfig is the singleton configuration record feeding the schedule
// projector's defaults.
type SiteConfig struct {
	DefaultDay     string
	DefaultVenue   string
	DefaultTime    string
	DefaultMapLink string
	UpdatedAt      time.Time
}

// Venue is a catalog entry jams can reference by name.
type Venue struct {
	ID        string
	Name      string
	MapLink   string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VenueInput captures caller provided venue fields.
type VenueInput struct {
	Name     string
	MapLink  string
	ImageURL string
}

// Community item types.
const (
	CommunityTypeEvent   = "event"
	CommunityTypeCharity = "charity"
)

// CommunityItem is a community or charity highlight shown on the site.
// Description holds markdown; DescriptionHTML is rendered server-side for
// read responses and never persisted.
type CommunityItem struct {
	ID              string
	Type            string
	Headline        string
	Description     string
	DescriptionHTML string
	ImageURL        string
	AmountRaised    string
	CharityName     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CommunityItemInput captures caller provided highlight fields.
type CommunityItemInput struct {
	Type         string
	Headline     string
	Description  string
	ImageURL     string
	AmountRaised string
	CharityName  string
}

// SpecialEvent is a date-ranged happening (festival weekend, visiting act)
// listed alongside the weekly jams. Dates are ISO YYYY-MM-DD strings; an
// event stays listed until its end date has passed.
type SpecialEvent struct {
	ID          string
	Title       string
	StartDate   string
	EndDate     string
	Time        string
	Venue       string
	MapLink     string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SpecialEventInput captures caller provided event fields.
type SpecialEventInput struct {
	Title       string
	StartDate   string
	EndDate     string
	Time        string
	Venue       string
	MapLink     string
	Description string
}

// GalleryPhoto is one entry in the photo gallery.
type GalleryPhoto struct {
	ID        string
	URL       string
	Caption   string
	CreatedAt time.Time
}

// GalleryPhotoInput captures caller provided photo fields.
type GalleryPhotoInput struct {
	URL     string
	Caption string
}

// AdminClaim is the time-bounded elevated-privilege marker attached to an
// identity.
type AdminClaim struct {
	UID       string
	Admin     bool
	ExpiresAt time.Time
}

// RateLimitRecord tracks PIN attempts for one identity within the rolling
// window.
type RateLimitRecord struct {
	UID         string
	Attempts    int
	WindowStart time.Time
	LockedUntil *time.Time
}

// Audit actions recorded by the admin core.
const (
	AuditActionAdminLogin  = "admin_login"
	AuditActionAdminLogout = "admin_logout"
	AuditActionGenerateURL = "generate_upload_url"
)

// AuditEntry is an append-only record of a privileged action. Entries are
// never read back by the services that write them.
type AuditEntry struct {
	ID        string
	UID       string
	Action    string
	Detail    string
	CreatedAt time.Time
}

// SubmitPinParams captures the data required to elevate an identity.
type SubmitPinParams struct {
	Principal Principal
	PIN       string
}

// SubmitPinResult captures the outcome of a successful PIN submission.
type SubmitPinResult struct {
	ExpiresAt time.Time
}

// UploadGrant is a time-bounded, path-scoped permission allowing a direct
// write to file storage.
type UploadGrant struct {
	URL       string
	Path      string
	ExpiresAt time.Time
}
