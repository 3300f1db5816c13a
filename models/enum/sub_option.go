package enum

// SubOption refines a payment method: the number of installments or the
// BNPL repayment delay. The wire names match the backend's method enum.
type SubOption string

const (
	SubOptionInstallment2 SubOption = "installment_2"
	SubOptionInstallment3 SubOption = "installment_3"
	SubOptionInstallment4 SubOption = "installment_4"

	SubOptionBNPL7  SubOption = "bnpl_7"
	SubOptionBNPL15 SubOption = "bnpl_15"
	SubOptionBNPL30 SubOption = "bnpl_30"
)
