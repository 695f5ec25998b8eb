package directadmin

// Level is the privilege of a context and the variant tag of an account.
// Higher levels can do everything lower levels can.
type Level int

const (
	LevelUser Level = iota + 1
	LevelReseller
	LevelAdmin
)

// String returns the wire form used in the usertype field.
func (l Level) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelReseller:
		return "reseller"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func (l Level) valid() bool {
	return l >= LevelUser && l <= LevelAdmin
}

// ParseLevel maps a usertype discriminant to its Level. Unknown values are
// rejected rather than defaulted.
func ParseLevel(usertype string) (Level, error) {
	switch usertype {
	case "user":
		return LevelUser, nil
	case "reseller":
		return LevelReseller, nil
	case "admin":
		return LevelAdmin, nil
	default:
		return 0, &UnknownAccountTypeError{Type: usertype}
	}
}
