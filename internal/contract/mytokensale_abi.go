package contract

// MyTokenSale is an OpenZeppelin Crowdsale that refuses purchases for
// beneficiaries not marked complete in the KYC contract.
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:           KindSale,
		ArtifactName: "MyTokenSale",
		Description:  "Crowdsale selling CAPPU for wei to KYC-approved buyers",
		ABI:          myTokenSaleABI,
		Methods:      []string{"buyTokens(address)"},
		Events:       []string{"TokensPurchased(address,address,uint256,uint256)"},
	})
}

const myTokenSaleABI = `[
	{"type":"function","name":"token","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"wallet","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"rate","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"weiRaised","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"kyc","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"buyTokens","stateMutability":"payable","inputs":[{"name":"beneficiary","type":"address"}],"outputs":[]},
	{"type":"receive","stateMutability":"payable"},
	{"type":"event","name":"TokensPurchased","anonymous":false,"inputs":[{"name":"purchaser","type":"address","indexed":true},{"name":"beneficiary","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false},{"name":"amount","type":"uint256","indexed":false}]}
]`
