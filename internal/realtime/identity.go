package realtime

// Identity is the authenticated user's capabilities, supplied by the auth
// layer. The realtime client only reads it to decide which room to auto-join.
type Identity struct {
	IsAdmin         bool
	IsManager       bool
	HasStaffProfile bool
}

// Role-derived room names.
const (
	RoomAdmin = "admin"
	RoomStaff = "staff"
)

// RoomForIdentity maps an identity to its broadcast room and user type.
// Admin or manager capability wins over a staff profile; an identity with
// neither gets no room. This is the only place room names are decided, so
// consumers never hardcode them.
func RoomForIdentity(id Identity) (room, userType string) {
	switch {
	case id.IsAdmin || id.IsManager:
		return RoomAdmin, RoomAdmin
	case id.HasStaffProfile:
		return RoomStaff, RoomStaff
	default:
		return "", ""
	}
}
