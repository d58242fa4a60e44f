package normalize

import "encoding/json"

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindBool
	kindList
	kindObject
)

type field struct {
	backend  string
	frontend string
	kind     fieldKind
}

// profileShape renames between backend snake_case and frontend camelCase.
// Fields outside the table pass through untouched.
type profileShape []field

var employerProfile = profileShape{
	{"id", "id", kindNumber},
	{"company_name", "companyName", kindString},
	{"company_description", "companyDescription", kindString},
	{"industry", "industry", kindString},
	{"company_size", "companySize", kindString},
	{"website", "website", kindString},
	{"location", "location", kindString},
	{"phone_number", "phoneNumber", kindString},
	{"contact_email", "contactEmail", kindString},
	{"logo", "logo", kindString},
	{"founded_year", "foundedYear", kindNumber},
	{"employee_count", "employeeCount", kindNumber},
	{"is_verified", "isVerified", kindBool},
	{"benefits", "benefits", kindList},
	{"social_links", "socialLinks", kindObject},
}

var employeeProfile = profileShape{
	{"id", "id", kindNumber},
	{"first_name", "firstName", kindString},
	{"last_name", "lastName", kindString},
	{"email", "email", kindString},
	{"phone_number", "phoneNumber", kindString},
	{"location", "location", kindString},
	{"headline", "headline", kindString},
	{"bio", "bio", kindString},
	{"profile_image", "profileImage", kindString},
	{"resume", "resume", kindString},
	{"portfolio_url", "portfolioUrl", kindString},
	{"linkedin_url", "linkedinUrl", kindString},
	{"github_url", "githubUrl", kindString},
	{"experience_years", "experienceYears", kindNumber},
	{"desired_salary", "desiredSalary", kindNumber},
	{"is_open_to_work", "isOpenToWork", kindBool},
	{"skills", "skills", kindList},
	{"education", "education", kindList},
	{"work_experience", "workExperience", kindList},
}

func (s profileShape) toFrontend(v any, baseURL string) any {
	switch val := v.(type) {
	case map[string]any:
		AbsolutizeMedia(val, baseURL)
		return s.rename(val, true)
	case []any:
		for i, item := range val {
			val[i] = s.toFrontend(item, baseURL)
		}
		return val
	default:
		return v
	}
}

func (s profileShape) toBackend(v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}
	return s.rename(obj, false)
}

// rename builds a new object keyed by the target naming. Only the response
// direction fills defaults; requests must not send fields the user never set.
func (s profileShape) rename(src map[string]any, toFrontend bool) map[string]any {
	out := make(map[string]any, len(src)+len(s))
	known := make(map[string]bool, len(s))

	for _, f := range s {
		from, to := f.backend, f.frontend
		if !toFrontend {
			from, to = f.frontend, f.backend
		}
		known[from] = true

		value, present := src[from]
		if toFrontend && (!present || value == nil) {
			out[to] = zeroValue(f.kind)
			continue
		}
		if present {
			out[to] = value
		}
	}

	for key, value := range src {
		if known[key] {
			continue
		}
		if _, taken := out[key]; taken {
			continue
		}
		out[key] = value
	}
	return out
}

func zeroValue(kind fieldKind) any {
	switch kind {
	case kindNumber:
		return json.Number("0")
	case kindBool:
		return false
	case kindList:
		return []any{}
	case kindObject:
		return map[string]any{}
	default:
		return ""
	}
}
