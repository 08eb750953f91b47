package models

// ToolStatus is the lifecycle state of a tool. The set is closed.
type ToolStatus string

const (
	StatusAvailable            ToolStatus = "AVAILABLE"
	StatusInUse                ToolStatus = "IN_USE"
	StatusInMaintenance        ToolStatus = "IN_MAINTENANCE"
	StatusDecommissionedAdmin  ToolStatus = "DECOMMISSIONED_ADMIN"
	StatusDecommissionedDamage ToolStatus = "DECOMMISSIONED_DAMAGE"
	StatusDecommissionedLoss   ToolStatus = "DECOMMISSIONED_LOSS"
)

// Audit reasons written with each lifecycle event.
const (
	ReasonIrreparableDamage = "Irreparable Damage"
	ReasonFieldLoss         = "Field Loss"
	ReasonAdministrative    = "Administrative Decommission"
	ReasonReactivated       = "Returned to Inventory"
)

// ForcedReturnNote is stored on loan lines closed by a reactivation.
const ForcedReturnNote = "Closed automatically by inventory reactivation"

var knownStatuses = map[ToolStatus]bool{
	StatusAvailable:            true,
	StatusInUse:                true,
	StatusInMaintenance:        true,
	StatusDecommissionedAdmin:  true,
	StatusDecommissionedDamage: true,
	StatusDecommissionedLoss:   true,
}

func (s ToolStatus) Valid() bool { return knownStatuses[s] }

// Decommissioned reports whether s is one of the DECOMMISSIONED_* variants.
func (s ToolStatus) Decommissioned() bool {
	switch s {
	case StatusDecommissionedAdmin, StatusDecommissionedDamage, StatusDecommissionedLoss:
		return true
	}
	return false
}

// DecommissionOutcome picks the decommissioned variant and audit reason from
// the state the tool is in before the transition. ok is false when the tool
// is already decommissioned.
func (s ToolStatus) DecommissionOutcome() (next ToolStatus, reason string, ok bool) {
	switch {
	case s.Decommissioned():
		return s, "", false
	case s == StatusInMaintenance:
		return StatusDecommissionedDamage, ReasonIrreparableDamage, true
	case s == StatusInUse:
		return StatusDecommissionedLoss, ReasonFieldLoss, true
	default:
		return StatusDecommissionedAdmin, ReasonAdministrative, true
	}
}

// ReturnCondition is the condition reported when a tool comes back.
type ReturnCondition string

const (
	ConditionGood    ReturnCondition = "GOOD"
	ConditionDamaged ReturnCondition = "DAMAGED"
)

func (c ReturnCondition) Valid() bool { return c == ConditionGood || c == ConditionDamaged }

// StatusAfterReturn is the status a returned tool moves to.
func (c ReturnCondition) StatusAfterReturn() ToolStatus {
	if c == ConditionDamaged {
		return StatusInMaintenance
	}
	return StatusAvailable
}
