package normalize

import "strings"

// ApplicationStats counts applications per status category
type ApplicationStats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Reviewed    int `json:"reviewed"`
	Shortlisted int `json:"shortlisted"`
	Interview   int `json:"interview"`
	Rejected    int `json:"rejected"`
	Hired       int `json:"hired"`
}

type applicationsView struct {
	Applications []any           `json:"applications"`
	Stats        ApplicationStats `json:"stats"`
}

// statusCategories folds the backend's status vocabulary into the dashboard buckets
var statusCategories = map[string]string{
	"pending":             "pending",
	"applied":             "pending",
	"submitted":           "pending",
	"new":                 "pending",
	"reviewed":            "reviewed",
	"under_review":        "reviewed",
	"in_review":           "reviewed",
	"reviewing":           "reviewed",
	"shortlisted":         "shortlisted",
	"interview":           "interview",
	"interviewing":        "interview",
	"interview_scheduled": "interview",
	"rejected":            "rejected",
	"declined":            "rejected",
	"hired":               "hired",
	"accepted":            "hired",
	"offer_accepted":      "hired",
}

// StatusCategory maps a raw application status to its bucket, or "" when unknown
func StatusCategory(status string) string {
	key := strings.ToLower(strings.TrimSpace(status))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return statusCategories[key]
}

func applicationStats(v any, baseURL string) any {
	items := listItems(v)
	view := applicationsView{Applications: items}
	view.Stats.Total = len(items)

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		AbsolutizeMedia(obj, baseURL)

		status, _ := obj["status"].(string)
		if status == "" {
			status, _ = obj["application_status"].(string)
		}
		switch StatusCategory(status) {
		case "pending":
			view.Stats.Pending++
		case "reviewed":
			view.Stats.Reviewed++
		case "shortlisted":
			view.Stats.Shortlisted++
		case "interview":
			view.Stats.Interview++
		case "rejected":
			view.Stats.Rejected++
		case "hired":
			view.Stats.Hired++
		}
	}
	return view
}

// listItems accepts a bare array or a paginated {"results": [...]} envelope
func listItems(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case map[string]any:
		if results, ok := val["results"].([]any); ok {
			return results
		}
		if apps, ok := val["applications"].([]any); ok {
			return apps
		}
	}
	return []any{}
}
