package domain

import "github.com/ethereum/go-ethereum/common/hexutil"

// DraftPayload is exec call data carrying the placeholder fee. It is only good for gas estimation.
type DraftPayload []byte

// FinalPayload is exec call data carrying the real fee. Only this type can be submitted.
type FinalPayload []byte

func (p DraftPayload) Hex() string { return hexutil.Encode(p) }

func (p FinalPayload) Hex() string { return hexutil.Encode(p) }
