package httphandler

import (
	"strings"

	"github.com/cockroachdb/errors"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/modules/erc20/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type contract struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

func mapContract(info entity.ContractInfo) contract {
	return contract{
		Address:  strings.ToLower(info.Address.Hex()),
		Symbol:   info.Symbol,
		Decimals: info.Decimals,
	}
}

type getContractsResult struct {
	List []contract `json:"list"`
}

type getContractsResponse = common.HttpResponse[getContractsResult]

func (h *HttpHandler) GetContracts(ctx *fiber.Ctx) (err error) {
	list := lo.Map(h.contracts.Contracts(), func(item entity.ContractInfo, _ int) contract {
		return mapContract(item)
	})

	resp := getContractsResponse{
		Result: &getContractsResult{
			List: list,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}

type getContractRequest struct {
	Address string `params:"address"`
}

func (r getContractRequest) Validate() error {
	if !ethcommon.IsHexAddress(r.Address) {
		return errs.NewPublicError("address must be a 20-byte hex address")
	}
	return nil
}

type getContractResponse = common.HttpResponse[contract]

func (h *HttpHandler) GetContract(ctx *fiber.Ctx) (err error) {
	var req getContractRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errs.WithPublicMessage(err, "invalid path parameters")
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	address := ethcommon.HexToAddress(req.Address)
	info, ok := lo.Find(h.contracts.Contracts(), func(item entity.ContractInfo) bool {
		return item.Address == address
	})
	if !ok {
		return errs.NewPublicNotFound("contract is not watched")
	}

	result := mapContract(info)
	return errors.WithStack(ctx.JSON(getContractResponse{Result: &result}))
}
