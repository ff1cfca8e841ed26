package checkout

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/model"
)

type State string

const (
	StateCollectingAddress State = "collecting_address"
	StateValidating        State = "validating"
	StateAwaitingPayment   State = "awaiting_payment"
	StatePlacingOrder      State = "placing_order"
	StateDone              State = "done"
	StateCancelled         State = "cancelled"
	// 決済後に注文保存が失敗した（サポート対応）
	StateOrderFailed State = "order_failed"
)

type Event string

const (
	EventSubmit           Event = "submit"
	EventValidated        Event = "validated"
	EventValidationFailed Event = "validation_failed"
	EventPaymentSucceeded Event = "payment_succeeded"
	EventPaymentCancelled Event = "payment_cancelled"
	EventOrderPlaced      Event = "order_placed"
	EventOrderFailed      Event = "order_failed"
	EventReset            Event = "reset"
)

var ErrInvalidTransition = errors.New("invalid checkout transition")

// 戻る方向の遷移はない（キャンセル後のresetだけ）
var transitions = map[State]map[Event]State{
	StateCollectingAddress: {
		EventSubmit: StateValidating,
	},
	StateValidating: {
		EventValidated:        StateAwaitingPayment,
		EventValidationFailed: StateCollectingAddress,
	},
	StateAwaitingPayment: {
		EventPaymentSucceeded: StatePlacingOrder,
		EventPaymentCancelled: StateCancelled,
	},
	StatePlacingOrder: {
		EventOrderPlaced: StateDone,
		EventOrderFailed: StateOrderFailed,
	},
	StateCancelled: {
		EventReset: StateCollectingAddress,
	},
	StateDone: {
		EventReset: StateCollectingAddress,
	},
}

func Next(from State, ev Event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s --%s-->", ErrInvalidTransition, from, ev)
	}
	return to, nil
}

// 配送先フォーム
type ShippingForm struct {
	Details       model.ShippingDetails
	TermsAccepted bool
}

type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing shipping fields: " + strings.Join(e.Missing, ", ")
}

// collecting_addressを抜けるための条件
func ValidateShipping(f ShippingForm) error {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("email", f.Details.Email)
	check("name", f.Details.Name)
	check("address", f.Details.Address)
	check("city", f.Details.City)
	check("phone", f.Details.Phone)
	if !f.TermsAccepted {
		missing = append(missing, "terms")
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// 状態を持つチェックアウト1回分
type Machine struct {
	state State
}

func NewMachine() *Machine {
	return &Machine{state: StateCollectingAddress}
}

func Resume(s State) *Machine {
	return &Machine{state: s}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Fire(ev Event) error {
	to, err := Next(m.state, ev)
	if err != nil {
		return err
	}
	m.state = to
	return nil
}

// ガードに通らなければcollecting_addressのまま
func (m *Machine) Submit(f ShippingForm) error {
	if m.state != StateCollectingAddress {
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, m.state)
	}
	if err := ValidateShipping(f); err != nil {
		return err
	}
	return m.Fire(EventSubmit)
}
