// Package model defines the portfolio content entities.
//
// Every entity is a document in the content store addressed by
// (collection, id). Singletons live at a fixed id; collection items get a
// store-assigned id when they are created.
//
// The `json:"..."` tags double as the document field names, so a Hero is
// stored as {"name": ..., "title": ..., "description": ..., "imageUrl": ...}.
package model

// Collection names and singleton ids.
const (
	CollectionHero         = "hero"
	CollectionCertificates = "certificates"
	CollectionExperience   = "experience"
	CollectionCV           = "cv"
	CollectionFooter       = "footer"
	CollectionSettings     = "settings"

	MainID     = "main"
	SecurityID = "security"
)

// Hero is the landing section. Singleton at ("hero", "main").
type Hero struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// Certificate is one item of the "certificates" collection.
// ID is never written into the document; it is the document's key.
type Certificate struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Issuer      string `json:"issuer"`
	Date        string `json:"date"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// Experience is one item of the "experience" collection.
type Experience struct {
	ID          string `json:"id,omitempty"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// CV points at the uploaded résumé file. Singleton at ("cv", "main").
type CV struct {
	CVURL    string `json:"cvUrl"`
	FileName string `json:"fileName"`
}

// Footer holds contact details. Singleton at ("footer", "main").
type Footer struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	About    string `json:"about"`
}

// SecuritySetting controls admin access. Singleton at ("settings", "security").
//
// Password is stored as written by the admin: plaintext unless password
// hashing is switched on, in which case it holds a bcrypt hash.
type SecuritySetting struct {
	Password string `json:"password"`
}
