package directory

// Permissions are "<subject>:<action>" strings over a closed
// enumeration of subjects and actions.

// Permission subjects.
const (
	SubjectCharts         = "charts"
	SubjectFAQs           = "faqs"
	SubjectForms          = "forms"
	SubjectTenders        = "tenders"
	SubjectCRMContacts    = "crm_contacts"
	SubjectCRMIndustries  = "crm_industries"
	SubjectCRMOccupations = "crm_occupations"
	SubjectUsers          = "users"
	SubjectRoles          = "roles"
)

// Permission actions.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Subjects lists every permission subject.
var Subjects = []string{
	SubjectCharts,
	SubjectFAQs,
	SubjectForms,
	SubjectTenders,
	SubjectCRMContacts,
	SubjectCRMIndustries,
	SubjectCRMOccupations,
	SubjectUsers,
	SubjectRoles,
}

// Actions lists every permission action.
var Actions = []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

// Permission builds a "<subject>:<action>" permission string.
func Permission(subject, action string) string {
	return subject + ":" + action
}

// AllPermissions enumerates the full permission vocabulary.
func AllPermissions() []string {
	perms := make([]string, 0, len(Subjects)*len(Actions))
	for _, s := range Subjects {
		for _, a := range Actions {
			perms = append(perms, Permission(s, a))
		}
	}
	return perms
}
