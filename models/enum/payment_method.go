package enum

// PaymentMethod identifies how a checkout attempt is settled.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodBNPL         PaymentMethod = "bnpl"
	PaymentMethodBorrow       PaymentMethod = "borrow"
	PaymentMethodInstallment  PaymentMethod = "installment"
	PaymentMethodCash         PaymentMethod = "cash"
)

// RequiresAccount reports whether the method is only available to
// authenticated users with an active bank account.
func (m PaymentMethod) RequiresAccount() bool {
	switch m {
	case PaymentMethodBNPL, PaymentMethodBorrow, PaymentMethodInstallment:
		return true
	}
	return false
}

// RequiresSubOption reports whether the method needs a sub-option
// (installment count or BNPL delay) before it can be dispatched.
func (m PaymentMethod) RequiresSubOption() bool {
	return m == PaymentMethodBNPL || m == PaymentMethodInstallment
}
