package provider

import "github.com/taoyao-code/card-terminal/internal/cardreader"

// AuthorizationType 令牌的授权来源
type AuthorizationType string

const (
	AuthorizationRFID          AuthorizationType = "RFID"
	AuthorizationOCPP          AuthorizationType = "OCPP"
	AuthorizationAutocharge    AuthorizationType = "Autocharge"
	AuthorizationPlugAndCharge AuthorizationType = "PlugAndCharge"
	AuthorizationBankCard      AuthorizationType = "BankCard"
)

// CertificateHashData ISO 15118 证书哈希数据
type CertificateHashData struct {
	HashAlgorithm  string `json:"hash_algorithm"`
	IssuerNameHash string `json:"issuer_name_hash"`
	IssuerKeyHash  string `json:"issuer_key_hash"`
	SerialNumber   string `json:"serial_number"`
	ResponderURL   string `json:"responder_url"`
}

// ProvidedIDToken 交给下游授权模块的令牌
type ProvidedIDToken struct {
	IDToken                     string                `json:"id_token"`
	AuthorizationType           AuthorizationType     `json:"authorization_type"`
	Certificate                 *string               `json:"certificate,omitempty"`
	Connectors                  []int32               `json:"connectors,omitempty"`
	IDTokenType                 *string               `json:"id_token_type,omitempty"`
	ISO15118CertificateHashData []CertificateHashData `json:"iso15118_certificate_hash_data,omitempty"`
	Prevalidated                *bool                 `json:"prevalidated,omitempty"`
	RequestID                   *int32                `json:"request_id,omitempty"`
}

// TokenFromCard 由会员卡读卡结果构造令牌；无标签 ID 时返回 ErrMissingTagID
func TokenFromCard(card *cardreader.CardInfo) (ProvidedIDToken, error) {
	if card == nil || card.TagID == nil {
		return ProvidedIDToken{}, ErrMissingTagID
	}
	return ProvidedIDToken{
		IDToken:           *card.TagID,
		AuthorizationType: AuthorizationRFID,
	}, nil
}
