package ability

import (
	"github.com/samber/oops"
)

// Admission refusal codes.
const (
	CodeDisabled          = "ABILITY_DISABLED"
	CodeConfigMissing     = "CONFIG_MISSING"
	CodeActorOffline      = "ACTOR_OFFLINE"
	CodeAlreadyActive     = "ALREADY_ACTIVE"
	CodeNotPermitted      = "NOT_PERMITTED"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

var refusalText = map[string]string{
	CodeDisabled:          "that ability is disabled",
	CodeConfigMissing:     "that ability is not available",
	CodeActorOffline:      "you are not online",
	CodeAlreadyActive:     "that ability is already active",
	CodeNotPermitted:      "area not permitted here",
	CodeInsufficientFunds: "not enough tokens",
}

func refuse(code string, kind Kind, format string, args ...any) error {
	return oops.In("ability").
		Code(code).
		With("kind", string(kind)).
		Errorf(format, args...)
}

// RefusalCode returns the admission code carried by err, or "".
func RefusalCode(err error) string {
	oe, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	var code any = oe.Code()
	s, _ := code.(string)
	return s
}

// RefusalMessage is the short player-facing text for an admission error.
func RefusalMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := refusalText[RefusalCode(err)]; ok {
		return msg
	}
	return "that ability could not be used"
}
