package jsonrpc

// registerAllMethods registers every supported method.
func (s *Server) registerAllMethods() {
	s.registry.Register("server_info", &ServerInfoMethod{chain: s.chain, events: s.events, list: s.registry.List})

	s.registry.Register("market_feeInfo", &FeeInfoMethod{chain: s.chain})
	s.registry.Register("market_auction", &AuctionMethod{chain: s.chain})
	s.registry.Register("market_activeAuctions", &ActiveAuctionsMethod{chain: s.chain})
	s.registry.Register("market_auctionId", &AuctionIDMethod{chain: s.chain})
	s.registry.Register("market_royaltyQuote", &RoyaltyQuoteMethod{chain: s.chain})
	s.registry.Register("market_pendingRefund", &PendingRefundMethod{chain: s.chain})

	s.registry.Register("world_tokens", &TokensMethod{chain: s.chain})
	s.registry.Register("world_accounts", &AccountsMethod{chain: s.chain})
	s.registry.Register("world_balance", &BalanceMethod{chain: s.chain})
	s.registry.Register("world_ownerOf", &OwnerOfMethod{chain: s.chain})

	// History methods need an event store
	if s.events != nil {
		s.registry.Register("history_receipt", &ReceiptMethod{events: s.events})
		s.registry.Register("history_events", &EventsMethod{events: s.events})
	}
}
