// Package testing provides test infrastructure for marketplace testing.
//
// It follows the jtx style: a TestEnv owns a simulated chain with a
// deployed marketplace, a ManualClock drives block time, accounts are
// derived deterministically from names and every submitted call returns a
// TxResult that the Require helpers inspect.
//
// # Basic Usage
//
//	func TestEnd(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//
//	    seller := testing.NewAccount("seller")
//	    bidder := testing.NewAccount("bidder")
//	    env.Fund(seller, bidder)
//
//	    nft := env.DeployCollection()
//	    env.MintNFT(nft, seller, 1)
//
//	    b := auction.Create(seller, asset.ERC721(nft, big.NewInt(1))).
//	        Window(env.Now()+10, env.Now()+100).
//	        MinPrice(testing.Ether(1))
//	    testing.RequireTxSuccess(t, env.Submit(b.Build()))
//	}
//
// # Clock Control
//
//	env.AdvanceTime(10 * time.Second)
//	env.SetTime(1_700_000_000)
//	env.Now()            // current block timestamp in seconds
//
// # Assertions
//
//	testing.RequireTxSuccess(t, result)
//	testing.RequireTxFail(t, result, testing.CodeReverted)
//	testing.RequireReason(t, result, "NftMarketplaceV2: Too low amount")
//	testing.RequireBalance(t, env, alice.Address, testing.Ether(10))
//	testing.RequireOwner(t, env, nft, 1, bob.Address)
package testing
