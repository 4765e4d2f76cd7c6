package game

// Reason is why a player action was rejected. Rejections never change state;
// the message is what the player sees.
type Reason int

const (
	ReasonInsufficientCredits Reason = iota + 1
	ReasonDrillTooWeak
	ReasonNotDrillable
	ReasonOutOfRange
	ReasonCargoFull
	ReasonTeleportFromSurface
	ReasonNoShaft
	ReasonAlreadyPiped
	ReasonUnknownUpgrade
)

var reasonMessages = map[Reason]string{
	ReasonInsufficientCredits: "Not enough credits",
	ReasonDrillTooWeak:        "Need stronger drill",
	ReasonNotDrillable:        "Nothing to drill here",
	ReasonOutOfRange:          "Cannot drill outside the mine",
	ReasonCargoFull:           "Cargo hold is full",
	ReasonTeleportFromSurface: "Teleport only works underground",
	ReasonNoShaft:             "No shaft here",
	ReasonAlreadyPiped:        "Shaft already has a pipe",
	ReasonUnknownUpgrade:      "No such upgrade",
}

func (r Reason) Error() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return "Action rejected"
}
