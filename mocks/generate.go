package mocks

//go:generate mockgen -destination=./mock_journal.go -package=mocks github.com/rustyeddy/momentum/journal Journal
//go:generate mockgen -destination=./mock_trade_listener.go -package=mocks github.com/rustyeddy/momentum/sim TradeListener
