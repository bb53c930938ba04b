package chains

import "strings"

// ZeroAddress marks a protocol as not deployed on a chain.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Config identifies one supported network. Loaded once at process start and
// never mutated.
type Config struct {
	ChainID       string
	Name          string
	ExplorerBase  string
	MorphoAddress string
	AaveAddresses []string
}

// HasMorpho reports whether Morpho is deployed on this chain.
func (c Config) HasMorpho() bool {
	return c.MorphoAddress != "" && !strings.EqualFold(c.MorphoAddress, ZeroAddress)
}

var configs = map[string]Config{
	"1": {
		ChainID:       "1",
		Name:          "Ethereum Mainnet",
		ExplorerBase:  "https://eth.blockscout.com",
		MorphoAddress: "0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb",
		AaveAddresses: []string{
			"0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2",
			"0x4e033931ad43597d96D6bcc25c280717730B58B1",
			"0xAe05Cd22df81871bc7cC2a04BeCfb516bFe332C8",
			"0x0AA97c284e98396202b6A04024F5E2c65026F3c0",
		},
	},
	"137": {
		ChainID:       "137",
		Name:          "Polygon Mainnet",
		ExplorerBase:  "https://polygon.blockscout.com",
		MorphoAddress: "0x1bF0c2541F820E775182832f06c0B7Fc27A25f67",
		AaveAddresses: []string{"0x794a61358D6845594F94dc1DB02A252b5b4814aD"},
	},
	"42161": {
		ChainID:       "42161",
		Name:          "Arbitrum One",
		ExplorerBase:  "https://arbitrum.blockscout.com",
		MorphoAddress: "0x6c247b1F6182318877311737BaC0844bAa518F5e",
		AaveAddresses: []string{"0x794a61358D6845594F94dc1DB02A252b5b4814aD"},
	},
	"10": {
		ChainID:       "10",
		Name:          "Optimism",
		ExplorerBase:  "https://optimism.blockscout.com",
		MorphoAddress: "0xd85cE6BD68487E0AaFb0858FDE1Cd18c76840564",
		AaveAddresses: []string{"0x794a61358D6845594F94dc1DB02A252b5b4814aD"},
	},
	"8453": {
		ChainID:       "8453",
		Name:          "Base",
		ExplorerBase:  "https://base.blockscout.com",
		MorphoAddress: "0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb",
		AaveAddresses: []string{"0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"},
	},
	"56": {
		ChainID:       "56",
		Name:          "BNB Chain",
		ExplorerBase:  "https://bsc.blockscout.com",
		MorphoAddress: "0x01b0Bd309AA75547f7a37Ad7B1219A898E67a83a",
		AaveAddresses: []string{"0x6807dc923806fE8Fd134338EABCA509979a7e0cB"},
	},
	"43114": {
		ChainID:       "43114",
		Name:          "Avalanche",
		ExplorerBase:  "https://avalanche.blockscout.com",
		MorphoAddress: ZeroAddress,
		AaveAddresses: []string{"0x794a61358D6845594F94dc1DB02A252b5b4814aD"},
	},
	"100": {
		ChainID:       "100",
		Name:          "Gnosis",
		ExplorerBase:  "https://gnosis.blockscout.com",
		MorphoAddress: "0xB74D4dd451E250bC325AFF0556D717e4E2351c66",
		AaveAddresses: []string{"0xb50201558B00496A145fE76f7424749556E326D8"},
	},
	"534352": {
		ChainID:       "534352",
		Name:          "Scroll",
		ExplorerBase:  "https://scroll.blockscout.com",
		MorphoAddress: "0x2d012EdbAdc37eDc2BC62791B666f9193FDF5a55",
		AaveAddresses: []string{"0x11fCfe756c05AD438e312a7fd934381537D3cFfe"},
	},
	"324": {
		ChainID:       "324",
		Name:          "zkSync Era",
		ExplorerBase:  "https://zksync.blockscout.com",
		MorphoAddress: ZeroAddress,
		AaveAddresses: []string{"0x78e30497a3c7527d953c6B1E3541b021A98Ac43c"},
	},
	"42220": {
		ChainID:       "42220",
		Name:          "Celo",
		ExplorerBase:  "https://celo.blockscout.com",
		MorphoAddress: "0xd24ECdD8C1e0E57a4E26B1a7bbeAa3e95466A569",
		AaveAddresses: []string{"0x3E59A31363E2ad014dcbc521c4a0d5757d9f3402"},
	},
	"59144": {
		ChainID:       "59144",
		Name:          "Linea",
		ExplorerBase:  "https://linea.blockscout.com",
		MorphoAddress: ZeroAddress,
		AaveAddresses: []string{"0xc47b8C00b0f69a36fa203Ffeac0334874574a8Ac"},
	},
	"1101": {
		ChainID:       "1101",
		Name:          "Polygon zkEVM",
		ExplorerBase:  "https://zkevm.blockscout.com",
		MorphoAddress: ZeroAddress,
		AaveAddresses: []string{"0x925a2A7214Ed92428B5b1B090F80b25700095e12"},
	},
	"1088": {
		ChainID:       "1088",
		Name:          "Metis",
		ExplorerBase:  "https://metis.blockscout.com",
		MorphoAddress: ZeroAddress,
		AaveAddresses: []string{"0x90df02551bB792286e8D4f13E0e357b4Bf1D6a57"},
	},
	"34443": {
		ChainID:       "34443",
		Name:          "Mode",
		ExplorerBase:  "https://mode.blockscout.com",
		MorphoAddress: "0xd85cE6BD68487E0AaFb0858FDE1Cd18c76840564",
		AaveAddresses: []string{ZeroAddress},
	},
	"252": {
		ChainID:       "252",
		Name:          "Fraxtal",
		ExplorerBase:  "https://frax.blockscout.com",
		MorphoAddress: "0xa6030627d724bA78a59aCf43Be7550b4C5a0653b",
		AaveAddresses: []string{ZeroAddress},
	},
	"11155111": {
		ChainID:       "11155111",
		Name:          "Sepolia",
		ExplorerBase:  "https://sepolia.blockscout.com",
		MorphoAddress: ZeroAddress,
		AaveAddresses: []string{ZeroAddress},
	},
}

// Lookup returns the configuration for chainID, defaulting to Ethereum
// mainnet ("1") when the id is unknown. It never fails.
func Lookup(chainID string) Config {
	if cfg, ok := configs[chainID]; ok {
		return cfg
	}
	return configs["1"]
}

// Supported lists the registered chain ids.
func Supported() []string {
	ids := make([]string, 0, len(configs))
	for id := range configs {
		ids = append(ids, id)
	}
	return ids
}
