package common

type Module string

const (
	ModuleERC20 Module = "erc20"
)

func (m Module) String() string {
	return string(m)
}
