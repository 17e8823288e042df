package entity

import jsoniter "github.com/json-iterator/go"

// EtherscanResponse is the common envelope of the Etherscan account API.
// Result is an array on success and a plain string when the call failed.
type EtherscanResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Result  jsoniter.RawMessage `json:"result"`
}

// EtherscanTx covers both txlist and txlistinternal records.
// Internal transactions carry no gasPrice.
type EtherscanTx struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Gas             string `json:"gas"`
	GasPrice        string `json:"gasPrice"`
	GasUsed         string `json:"gasUsed"`
	IsError         string `json:"isError"`
	TxReceiptStatus string `json:"txreceipt_status"`
	ContractAddress string `json:"contractAddress"`
	Type            string `json:"type"`
	TraceID         string `json:"traceId"`
}
