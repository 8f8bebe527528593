package dto

import "options-trading/internal/model"

// UpdatePlayRequest is a partial edit of a play record. Nil fields are left
// untouched. The first four fields form the contract identity and are only
// editable while the play is NEW.
type UpdatePlayRequest struct {
	Symbol                 *string  `json:"symbol,omitempty" validate:"omitempty,min=1,max=10"`
	TradeType              *string  `json:"trade_type,omitempty" validate:"omitempty,oneof=CALL PUT"`
	StrikePrice            *string  `json:"strike_price,omitempty" validate:"omitempty,min=1"`
	ContractExpirationDate *string  `json:"contract_expiration_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Contracts              *int     `json:"contracts,omitempty" validate:"omitempty,gt=0"`
	TakeProfitStockPrice   *float64 `json:"take_profit_stock_price,omitempty" validate:"omitempty,gt=0"`
	StopLossStockPrice     *float64 `json:"stop_loss_stock_price,omitempty" validate:"omitempty,gt=0"`
}

// TouchesContractIdentity reports whether the edit includes any field that
// identifies the option contract.
func (r *UpdatePlayRequest) TouchesContractIdentity() bool {
	return r.Symbol != nil || r.TradeType != nil || r.StrikePrice != nil || r.ContractExpirationDate != nil
}

func (r *UpdatePlayRequest) ApplyTo(play *model.Play) {
	if r.Symbol != nil {
		play.Symbol = *r.Symbol
	}
	if r.TradeType != nil {
		play.TradeType = model.TradeType(*r.TradeType)
	}
	if r.StrikePrice != nil {
		play.StrikePrice = *r.StrikePrice
	}
	if r.ContractExpirationDate != nil {
		play.ContractExpirationDate = *r.ContractExpirationDate
	}
	if r.Contracts != nil {
		play.Contracts = *r.Contracts
	}
	if r.TakeProfitStockPrice != nil {
		play.TakeProfit.StockPrice = *r.TakeProfitStockPrice
	}
	if r.StopLossStockPrice != nil {
		play.StopLoss.StockPrice = *r.StopLossStockPrice
	}
}

// ClosePlayRequest ends an open play. CloseType defaults to manual.
type ClosePlayRequest struct {
	CloseType string `json:"close_type,omitempty" validate:"omitempty,oneof=TP SL GTD manual"`
	Reason    string `json:"reason,omitempty" validate:"max=500"`
}
