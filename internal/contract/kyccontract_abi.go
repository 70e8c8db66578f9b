package contract

// KycContract is the owner-managed allow-list consulted by the sale.
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:           KindAllowlist,
		ArtifactName: "KycContract",
		Description:  "Owner-managed KYC allow-list",
		ABI:          kycContractABI,
		Methods:      []string{"setKycCompleted(address)", "kycCompleted(address)"},
	})
}

const kycContractABI = `[
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"setKycCompleted","stateMutability":"nonpayable","inputs":[{"name":"_addr","type":"address"}],"outputs":[]},
	{"type":"function","name":"setKycRevoked","stateMutability":"nonpayable","inputs":[{"name":"_addr","type":"address"}],"outputs":[]},
	{"type":"function","name":"kycCompleted","stateMutability":"view","inputs":[{"name":"_addr","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"OwnershipTransferred","anonymous":false,"inputs":[{"name":"previousOwner","type":"address","indexed":true},{"name":"newOwner","type":"address","indexed":true}]}
]`
