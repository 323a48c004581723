package model

// Account represents one generated wallet as stored in the account file
type Account struct {
	Address        string `json:"address"`
	PrivateKey     string `json:"privateKey"`
	MnemonicPhrase string `json:"mnemonic"`
}

// AccountBalance is the secret-free view of an account used for selection lists
type AccountBalance struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
	Balance string `json:"balance"`        // major units, formatted
	Error   string `json:"error,omitempty"` // set when the balance read failed
}
