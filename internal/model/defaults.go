package model

import (
	"strconv"
	"time"
)

// DefaultAdminPassword is accepted while no SecuritySetting document exists.
const DefaultAdminPassword = "admin123"

const sampleImageURL = "https://res.cloudinary.com/dyq5zfd8x/image/upload/v1/sample"

// FallbackHero is rendered when ("hero", "main") does not exist.
func FallbackHero() Hero {
	return Hero{
		Name:        "Muhammad Hassnain Tahir",
		Title:       "Civil Engineer",
		Description: "Designing and building infrastructure that connects communities and shapes the future.",
		ImageURL:    sampleImageURL,
	}
}

// FallbackCV is rendered when ("cv", "main") does not exist.
// "#" marks a CV that cannot be opened.
func FallbackCV() CV {
	return CV{
		CVURL:    "#",
		FileName: "CV_Muhammad_Hassnain_Tahir.pdf",
	}
}

func FallbackFooter() Footer {
	return Footer{
		Email:    "hassnain.3280@gmail.com",
		Phone:    "+971 544679407",
		Location: "Al Nahda 2 - Dubai",
		LinkedIn: "https://linkedin.com/in/muhammadhassnaintahir/",
		About:    "Junior Civil Engineer dedicated to high-quality construction, site supervision, and infrastructure development.",
	}
}

// FallbackCertificates is rendered when the collection is empty.
func FallbackCertificates() []Certificate {
	return []Certificate{
		{ID: "1", Title: "Professional Engineer License", Issuer: "PEC", Date: "2025", Description: "Licensed Professional Engineer.", ImageURL: sampleImageURL},
		{ID: "2", Title: "Structural Design Certificate", Issuer: "Engineering Council", Date: "2024", Description: "Advanced structural analysis and design.", ImageURL: sampleImageURL},
		{ID: "3", Title: "AutoCAD Certified Professional", Issuer: "Autodesk", Date: "2023", Description: "Expert-level proficiency in AutoCAD.", ImageURL: sampleImageURL},
	}
}

// FallbackExperience is rendered when the collection is empty.
func FallbackExperience() []Experience {
	return []Experience{
		{
			ID:          "1",
			Role:        "Senior Civil Engineer",
			Company:     "Global Infrastructure Group",
			Duration:    "2022 - Present",
			Description: "Leading structural design for large-scale bridge projects. Managing on-site construction teams and ensuring strict adherence to international safety standards.",
		},
		{
			ID:          "2",
			Role:        "Project Manager",
			Company:     "Urban Development Authority",
			Duration:    "2019 - 2022",
			Description: "Overseeing urban drainage and road infrastructure projects. Coordinated between government stakeholders and private contractors to deliver projects under budget.",
		},
		{
			ID:          "3",
			Role:        "Junior Structural Engineer",
			Company:     "BuildRight Consultants",
			Duration:    "2017 - 2019",
			Description: "Assisted in the design and analysis of high-rise residential buildings. Performed complex structural calculations and drafted technical specifications.",
		},
	}
}

// NewCertificate returns the field values written when the admin adds a
// certificate. The date is the current year.
func NewCertificate(now time.Time) Certificate {
	return Certificate{
		Title:       "New Certificate",
		Issuer:      "Issuer",
		Date:        strconv.Itoa(now.Year()),
		Description: "Description",
		ImageURL:    "",
	}
}

// NewExperience returns the field values written when the admin adds an
// experience entry.
func NewExperience() Experience {
	return Experience{
		Role:        "New Role",
		Company:     "Company",
		Duration:    "2024 - Present",
		Description: "Description",
	}
}
