package model

// Keystore is the on-disk form of one exported account. Address and Network
// stay readable; the account itself is sealed in CipherText.
type Keystore struct {
	Version    int    `json:"version"`
	Network    string `json:"network"`
	Address    string `json:"address"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}
