package models

// State describes the status a resource advertises during an interval.
type State string

const (
	StateUndefined         State = "undefined"
	StateOpen              State = "open"
	StateClosed            State = "closed"
	StateSelfService       State = "self_service"
	StateWithKey           State = "with_key"
	StateWithReservation   State = "with_reservation"
	StateOpenAndReservable State = "open_and_reservable"
	StateEnterOnly         State = "enter_only"
	StateExitOnly          State = "exit_only"
	StateWeatherPermitting State = "weather_permitting"
	StateNotInUse          State = "not_in_use"
	StateMaybeOpen         State = "maybe_open"
)

var knownStates = map[State]struct{}{
	StateUndefined:         {},
	StateOpen:              {},
	StateClosed:            {},
	StateSelfService:       {},
	StateWithKey:           {},
	StateWithReservation:   {},
	StateOpenAndReservable: {},
	StateEnterOnly:         {},
	StateExitOnly:          {},
	StateWeatherPermitting: {},
	StateNotInUse:          {},
	StateMaybeOpen:         {},
}

// Valid reports whether the state is a known value.
func (s State) Valid() bool {
	_, ok := knownStates[s]
	return ok
}

func (s State) String() string {
	return string(s)
}
