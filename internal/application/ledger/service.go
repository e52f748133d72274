package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/domain"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/keylock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is the holdings ledger: the single component allowed to mutate
// transactions and their derived holding rows. Every mutation path (record,
// edit, bulk delete) goes through here so the aggregate arithmetic lives in
// one place.
//
// Consistency contract: for every (uid, portfolio, symbol) with stored
// transactions whose net signed share sum is positive, exactly one holding row
// exists with that sum and the weighted average purchase cost; otherwise no
// row exists. Each operation wraps its reads and writes in one storage
// transaction, and operations on the same key are serialized through an
// in-process key lock so concurrent requests cannot lose updates.
type Service struct {
	DB    *gorm.DB
	locks *keylock.KeyLock
}

func New(db *gorm.DB) *Service {
	return &Service{DB: db, locks: keylock.New()}
}

// RecordInput describes a new buy or sell to record.
type RecordInput struct {
	UID             string
	PortfolioID     uint
	Symbol          string
	Name            string
	AssetType       string
	Shares          float64
	Price           float64
	Fee             float64
	TransactionType string
	TransactionDate time.Time // zero value: now

	// CashAccountID, when set, books a matching stock_buy/stock_sell cash
	// flow and balance update in the same storage transaction.
	CashAccountID *uint
}

// EditInput describes an edit of an existing transaction. The symbol cannot
// change; moving a transaction to another symbol is a delete plus a record.
type EditInput struct {
	ID              uint
	UID             string
	PortfolioID     uint
	Symbol          string
	Name            string
	AssetType       string
	Shares          float64
	Price           float64
	Fee             float64
	TransactionType string
	TransactionDate time.Time
}

func lockKey(uid string, portfolioID uint, symbol string) string {
	return fmt.Sprintf("%s|%d|%s", uid, portfolioID, symbol)
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func validate(uid string, portfolioID uint, symbol string, shares, price, fee float64, txType string) error {
	if uid == "" {
		return fmt.Errorf("%w: uid is required", ErrValidation)
	}
	if portfolioID == 0 {
		return fmt.Errorf("%w: portfolio_id is required", ErrValidation)
	}
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	if shares <= 0 {
		return fmt.Errorf("%w: shares must be positive", ErrValidation)
	}
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if fee < 0 {
		return fmt.Errorf("%w: fee cannot be negative", ErrValidation)
	}
	if txType != domain.TxBuy && txType != domain.TxSell {
		return fmt.Errorf("%w: transaction_type must be buy or sell", ErrValidation)
	}
	return nil
}

// Record validates and stores one transaction, updating the holding
// incrementally. Returns the resulting holding, or nil when the sell closed
// the position. On any rejection neither the transaction nor the holding is
// touched.
func (s *Service) Record(ctx context.Context, in RecordInput) (*domain.Holding, error) {
	if err := validate(in.UID, in.PortfolioID, in.Symbol, in.Shares, in.Price, in.Fee, in.TransactionType); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(lockKey(in.UID, in.PortfolioID, in.Symbol))
	defer unlock()

	var result *domain.Holding
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holding, err := findHolding(tx, in.UID, in.PortfolioID, in.Symbol)
		if err != nil {
			return err
		}

		result, err = applyDelta(tx, holding, in)
		if err != nil {
			return err
		}

		record := domain.Transaction{
			UID:             in.UID,
			PortfolioID:     in.PortfolioID,
			Symbol:          in.Symbol,
			Name:            in.Name,
			AssetType:       in.AssetType,
			Shares:          in.Shares,
			Price:           in.Price,
			Fee:             in.Fee,
			TransactionType: in.TransactionType,
			TransactionDate: txDate(in.TransactionDate),
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if in.CashAccountID != nil {
			if err := bookTradeCashFlow(tx, &record, *in.CashAccountID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Edit updates a stored transaction and rebuilds the holding from the full
// remaining history for its key. Rebuilding rather than patching makes
// direction flips (a sell edited down past its original size, a buy edited
// into a sell) and price edits exact: the holding always equals what recording
// the current history from scratch would produce.
func (s *Service) Edit(ctx context.Context, in EditInput) (*domain.Holding, error) {
	if err := validate(in.UID, in.PortfolioID, in.Symbol, in.Shares, in.Price, in.Fee, in.TransactionType); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(lockKey(in.UID, in.PortfolioID, in.Symbol))
	defer unlock()

	var result *domain.Holding
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old domain.Transaction
		err := tx.Where("id = ? AND uid = ? AND portfolio_id = ?", in.ID, in.UID, in.PortfolioID).
			First(&old).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if old.Symbol != in.Symbol {
			return fmt.Errorf("%w: symbol cannot be changed on edit", ErrValidation)
		}

		prior, err := findHolding(tx, in.UID, in.PortfolioID, in.Symbol)
		if err != nil {
			return err
		}

		old.Name = in.Name
		old.AssetType = in.AssetType
		old.Shares = in.Shares
		old.Price = in.Price
		old.Fee = in.Fee
		old.TransactionType = in.TransactionType
		if !in.TransactionDate.IsZero() {
			old.TransactionDate = in.TransactionDate
		}
		if err := tx.Save(&old).Error; err != nil {
			return err
		}

		result, err = rebuildHolding(tx, in.UID, in.PortfolioID, in.Symbol)
		if err != nil {
			var insufficient *netShortError
			if errors.As(err, &insufficient) {
				held := 0.0
				if prior != nil {
					held = prior.TotalShares
				}
				return &InsufficientSharesError{Held: held, Requested: in.Shares}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the given transactions (all must belong to uid/portfolioID)
// and rebuilds the holding of every touched symbol from the remaining history.
func (s *Service) Delete(ctx context.Context, uid string, portfolioID uint, ids []uint) error {
	if uid == "" || portfolioID == 0 {
		return fmt.Errorf("%w: uid and portfolio_id are required", ErrValidation)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids cannot be empty", ErrValidation)
	}

	// Look up touched symbols outside the write transaction so the key locks
	// can be taken before it begins.
	var doomed []domain.Transaction
	if err := s.DB.WithContext(ctx).
		Where("id IN ? AND uid = ? AND portfolio_id = ?", ids, uid, portfolioID).
		Find(&doomed).Error; err != nil {
		return err
	}
	if len(doomed) == 0 {
		return ErrNotFound
	}
	if len(doomed) != len(dedupe(ids)) {
		// Some ids are absent or belong to someone else; reject the batch.
		return ErrNotFound
	}

	symbols := map[string]bool{}
	keys := make([]string, 0, len(doomed))
	for _, t := range doomed {
		if !symbols[t.Symbol] {
			symbols[t.Symbol] = true
			keys = append(keys, lockKey(uid, portfolioID, t.Symbol))
		}
	}
	unlock := s.locks.LockAll(keys)
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id IN ? AND uid = ? AND portfolio_id = ?", ids, uid, portfolioID).
			Delete(&domain.Transaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		for symbol := range symbols {
			// Deletion never rejects: a net short history simply leaves no
			// holding row.
			if _, err := rebuildHolding(tx, uid, portfolioID, symbol); err != nil {
				var short *netShortError
				if errors.As(err, &short) {
					continue
				}
				return err
			}
		}
		return nil
	})
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func txDate(d time.Time) time.Time {
	if d.IsZero() {
		return time.Now()
	}
	return d
}

func findHolding(tx *gorm.DB, uid string, portfolioID uint, symbol string) (*domain.Holding, error) {
	var h domain.Holding
	err := tx.Where("uid = ? AND portfolio_id = ? AND symbol = ?", uid, portfolioID, symbol).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// applyDelta applies one buy/sell incrementally to the holding row. Buys merge
// into the weighted average cost, rounded to 2 decimals once at the end of the
// computation; sells reduce shares and never change the average cost. Fees are
// excluded from the cost basis.
func applyDelta(tx *gorm.DB, holding *domain.Holding, in RecordInput) (*domain.Holding, error) {
	shares := decimal.NewFromFloat(in.Shares)
	price := decimal.NewFromFloat(in.Price)

	if in.TransactionType == domain.TxSell {
		if holding == nil {
			return nil, ErrNoHoldings
		}
		held := decimal.NewFromFloat(holding.TotalShares)
		if held.LessThan(shares) {
			return nil, &InsufficientSharesError{Held: holding.TotalShares, Requested: in.Shares}
		}
		left := held.Sub(shares)
		if left.Sign() <= 0 {
			// Exact zero (and any negative residue from rounding) closes the
			// position entirely.
			if err := tx.Delete(holding).Error; err != nil {
				return nil, err
			}
			return nil, nil
		}
		holding.TotalShares = left.InexactFloat64()
		holding.LastUpdated = time.Now()
		if err := tx.Save(holding).Error; err != nil {
			return nil, err
		}
		return holding, nil
	}

	if holding == nil {
		created := domain.Holding{
			UID:         in.UID,
			PortfolioID: in.PortfolioID,
			Symbol:      in.Symbol,
			Name:        in.Name,
			AssetType:   in.AssetType,
			TotalShares: in.Shares,
			AvgCost:     round2(price),
			LastUpdated: time.Now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return nil, err
		}
		return &created, nil
	}

	if holding.TotalShares <= 0 {
		// A non-positive row should never survive an operation, but if one
		// does the buy restarts the position in place rather than inserting
		// a second row against the unique holding key.
		holding.Name = in.Name
		holding.AssetType = in.AssetType
		holding.TotalShares = in.Shares
		holding.AvgCost = round2(price)
		holding.LastUpdated = time.Now()
		if err := tx.Save(holding).Error; err != nil {
			return nil, err
		}
		return holding, nil
	}

	held := decimal.NewFromFloat(holding.TotalShares)
	avg := decimal.NewFromFloat(holding.AvgCost)
	total := held.Add(shares)
	newAvg := avg.Mul(held).Add(price.Mul(shares)).Div(total)

	holding.TotalShares = total.InexactFloat64()
	holding.AvgCost = round2(newAvg)
	if in.Name != "" {
		holding.Name = in.Name
	}
	if in.AssetType != "" {
		holding.AssetType = in.AssetType
	}
	holding.LastUpdated = time.Now()
	if err := tx.Save(holding).Error; err != nil {
		return nil, err
	}
	return holding, nil
}

// netShortError signals a rebuild whose history sells more shares than it ever
// bought. Callers translate it per operation.
type netShortError struct {
	net float64
}

func (e *netShortError) Error() string {
	return fmt.Sprintf("history is net short: %.4f shares", e.net)
}

// rebuildHolding recomputes the holding for one key from the full stored
// history, replaying transactions in date order through the same rules the
// record path uses: buys merge into the weighted average, rounded to 2
// decimals after each buy exactly as the record path persists it, and sells
// reduce shares at unchanged cost. Without the per-buy rounding a replay over
// an untouched history could drift from the stored aggregate. This is the
// non-local recomputation: deleting or editing an early buy changes the cost
// basis of everything after it, so patching the aggregate in place is never
// correct.
//
// A non-positive net share sum removes the holding row. A negative sum
// additionally returns netShortError so edits can reject.
func rebuildHolding(tx *gorm.DB, uid string, portfolioID uint, symbol string) (*domain.Holding, error) {
	var history []domain.Transaction
	if err := tx.Where("uid = ? AND portfolio_id = ? AND symbol = ?", uid, portfolioID, symbol).
		Order("transaction_date ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}

	net := decimal.Zero
	avg := decimal.Zero
	var name, assetType string
	for _, t := range history {
		if t.Name != "" {
			name = t.Name
		}
		if t.AssetType != "" {
			assetType = t.AssetType
		}
		shares := decimal.NewFromFloat(t.Shares)
		price := decimal.NewFromFloat(t.Price)
		if t.TransactionType == domain.TxBuy {
			if net.Sign() <= 0 {
				// Fresh position: any prior short residue keeps the net sum
				// honest but the cost basis restarts here.
				avg = price.Round(2)
			} else {
				total := net.Add(shares)
				avg = avg.Mul(net).Add(price.Mul(shares)).Div(total).Round(2)
			}
			net = net.Add(shares)
		} else {
			net = net.Sub(shares)
		}
	}

	existing, err := findHolding(tx, uid, portfolioID, symbol)
	if err != nil {
		return nil, err
	}

	if net.Sign() <= 0 {
		if existing != nil {
			if err := tx.Delete(existing).Error; err != nil {
				return nil, err
			}
		}
		if net.Sign() < 0 {
			return nil, &netShortError{net: net.InexactFloat64()}
		}
		return nil, nil
	}

	if existing == nil {
		created := domain.Holding{
			UID:         uid,
			PortfolioID: portfolioID,
			Symbol:      symbol,
			Name:        name,
			AssetType:   assetType,
			TotalShares: net.InexactFloat64(),
			AvgCost:     round2(avg),
			LastUpdated: time.Now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return nil, err
		}
		return &created, nil
	}

	existing.TotalShares = net.InexactFloat64()
	existing.AvgCost = round2(avg)
	if name != "" {
		existing.Name = name
	}
	if assetType != "" {
		existing.AssetType = assetType
	}
	existing.LastUpdated = time.Now()
	if err := tx.Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// bookTradeCashFlow records the cash movement of a stored trade against a cash
// account and adjusts the balance, inside the caller's storage transaction.
// Buys debit shares*price plus fee; sells credit shares*price net of fee.
func bookTradeCashFlow(tx *gorm.DB, record *domain.Transaction, accountID uint) error {
	var account domain.CashAccount
	err := tx.Where("id = ? AND uid = ?", accountID, record.UID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: cash account %d", ErrNotFound, accountID)
	}
	if err != nil {
		return err
	}

	gross := decimal.NewFromFloat(record.Shares).Mul(decimal.NewFromFloat(record.Price))
	fee := decimal.NewFromFloat(record.Fee)
	var amount decimal.Decimal
	flowType := domain.FlowStockSell
	if record.TransactionType == domain.TxBuy {
		// Cost plus fee leaves the account.
		amount = gross.Add(fee).Neg()
		flowType = domain.FlowStockBuy
	} else {
		// Proceeds net of fee arrive.
		amount = gross.Sub(fee)
	}

	flow := domain.CashFlow{
		UID:                  record.UID,
		AccountID:            account.ID,
		PortfolioID:          &record.PortfolioID,
		Amount:               round2(amount),
		FlowType:             flowType,
		Date:                 record.TransactionDate,
		RelatedTransactionID: &record.ID,
		RelatedSymbol:        &record.Symbol,
	}
	if err := tx.Create(&flow).Error; err != nil {
		return err
	}

	account.Balance = round2(decimal.NewFromFloat(account.Balance).Add(amount))
	return tx.Save(&account).Error
}
