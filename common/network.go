package common

import "math/big"

type Network string

const (
	NetworkEthereum Network = "ethereum"
	NetworkSepolia  Network = "sepolia"
	NetworkRonin    Network = "ronin"
	NetworkSaigon   Network = "saigon"
)

var chainIDs = map[Network]int64{
	NetworkEthereum: 1,
	NetworkSepolia:  11155111,
	NetworkRonin:    2020,
	NetworkSaigon:   2021,
}

func (n Network) IsSupported() bool {
	_, ok := chainIDs[n]
	return ok
}

// ChainID returns the EIP-155 chain id of the network, or nil if the network is unknown.
func (n Network) ChainID() *big.Int {
	id, ok := chainIDs[n]
	if !ok {
		return nil
	}
	return big.NewInt(id)
}

func (n Network) String() string {
	return string(n)
}
