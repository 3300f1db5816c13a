package enum

// ActiveView is the identity mode a signed-in user is currently operating
// under. A single logical user may hold both views.
type ActiveView string

const (
	ActiveViewPersonal ActiveView = "personal"
	ActiveViewBusiness ActiveView = "business"
)
