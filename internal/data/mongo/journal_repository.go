// Package mongo stores the transfer journal read model in MongoDB
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/transfer-ledger/internal/domain/journal"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/domain/transfer"
)

const (
	// JournalCollectionName is the name of the journal collection in MongoDB
	JournalCollectionName = "transfer_journal"
)

// journalDocument is the stored shape of a journal.Record. Ids are kept as strings and
// money as Decimal128 so the collection reads naturally from the mongo shell.
type journalDocument struct {
	TransactionID      string               `bson:"_id"`
	IdempotencyKey     string               `bson:"idempotency_key"`
	Kind               string               `bson:"kind"`
	SourceAccountID    string               `bson:"source_account_id"`
	TargetAccountID    string               `bson:"target_account_id"`
	Amount             primitive.Decimal128 `bson:"amount"`
	SourceBalanceAfter primitive.Decimal128 `bson:"source_balance_after"`
	TargetBalanceAfter primitive.Decimal128 `bson:"target_balance_after"`
	Status             string               `bson:"status"`
	CorrelationID      string               `bson:"correlation_id,omitempty"`
	OccurredAt         time.Time            `bson:"occurred_at"`
	ProjectedAt        time.Time            `bson:"projected_at"`
}

// JournalRepository implements the journal.Repository interface for MongoDB
type JournalRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewJournalRepository creates a new MongoDB journal repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) *JournalRepository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the indexes used by the time range queries
func (r *JournalRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(JournalCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "idempotency_key", Value: 1}}},
	})
	if err != nil {
		r.logger.Error("Failed to create journal indexes", "error", err)
		return fmt.Errorf("failed to create journal indexes: %w", err)
	}
	return nil
}

// Upsert stores the record under its transaction id. Redelivered events replace
// the existing document, so projecting the same event twice leaves one record.
func (r *JournalRepository) Upsert(ctx context.Context, record *journal.Record) error {
	collection := r.db.Collection(JournalCollectionName)

	doc, err := toDocument(record)
	if err != nil {
		return fmt.Errorf("failed to encode journal record: %w", err)
	}

	filter := bson.M{"_id": doc.TransactionID}
	_, err = collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to upsert journal record",
			"transaction_id", record.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to upsert journal record: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a journal record by its transaction ID.
// Returns ErrRecordNotFound if the transfer has not been projected yet.
func (r *JournalRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*journal.Record, error) {
	collection := r.db.Collection(JournalCollectionName)

	var doc journalDocument
	err := collection.FindOne(ctx, bson.M{"_id": transactionID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrRecordNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get journal record",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get journal record: %w", err)
	}

	return fromDocument(&doc)
}

// ListByTimeRange retrieves paginated records that occurred within [from, to].
// Results are sorted by occurrence time in descending order.
func (r *JournalRepository) ListByTimeRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*journal.Record, error) {
	collection := r.db.Collection(JournalCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, timeRangeFilter(from, to), opts)
	if err != nil {
		r.logger.Error("Failed to list journal records",
			"from", from,
			"to", to,
			"error", err)
		return nil, fmt.Errorf("failed to list journal records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []journalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode journal records", "error", err)
		return nil, fmt.Errorf("failed to decode journal records: %w", err)
	}

	records := make([]*journal.Record, 0, len(docs))
	for i := range docs {
		record, err := fromDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// CountByTimeRange counts the records that occurred within [from, to]
func (r *JournalRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	collection := r.db.Collection(JournalCollectionName)

	count, err := collection.CountDocuments(ctx, timeRangeFilter(from, to))
	if err != nil {
		r.logger.Error("Failed to count journal records",
			"from", from,
			"to", to,
			"error", err)
		return 0, fmt.Errorf("failed to count journal records: %w", err)
	}

	return count, nil
}

func timeRangeFilter(from, to time.Time) bson.M {
	return bson.M{
		"occurred_at": bson.M{
			"$gte": from.UTC(),
			"$lte": to.UTC(),
		},
	}
}

func toDocument(record *journal.Record) (*journalDocument, error) {
	amount, err := toDecimal128(record.Amount)
	if err != nil {
		return nil, err
	}
	sourceAfter, err := toDecimal128(record.SourceBalanceAfter)
	if err != nil {
		return nil, err
	}
	targetAfter, err := toDecimal128(record.TargetBalanceAfter)
	if err != nil {
		return nil, err
	}

	return &journalDocument{
		TransactionID:      record.TransactionID.String(),
		IdempotencyKey:     record.IdempotencyKey,
		Kind:               string(record.Kind),
		SourceAccountID:    record.SourceAccountID.String(),
		TargetAccountID:    record.TargetAccountID.String(),
		Amount:             amount,
		SourceBalanceAfter: sourceAfter,
		TargetBalanceAfter: targetAfter,
		Status:             string(record.Status),
		CorrelationID:      record.CorrelationID,
		OccurredAt:         record.OccurredAt.UTC(),
		ProjectedAt:        record.ProjectedAt.UTC(),
	}, nil
}

func fromDocument(doc *journalDocument) (*journal.Record, error) {
	txID, err := uuid.Parse(doc.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id in journal document: %w", err)
	}
	sourceID, err := uuid.Parse(doc.SourceAccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid source account id in journal document: %w", err)
	}
	targetID, err := uuid.Parse(doc.TargetAccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid target account id in journal document: %w", err)
	}
	amount, err := fromDecimal128(doc.Amount)
	if err != nil {
		return nil, err
	}
	sourceAfter, err := fromDecimal128(doc.SourceBalanceAfter)
	if err != nil {
		return nil, err
	}
	targetAfter, err := fromDecimal128(doc.TargetBalanceAfter)
	if err != nil {
		return nil, err
	}

	return &journal.Record{
		TransactionID:      txID,
		IdempotencyKey:     doc.IdempotencyKey,
		Kind:               shared.TransactionKind(doc.Kind),
		SourceAccountID:    sourceID,
		TargetAccountID:    targetID,
		Amount:             amount,
		SourceBalanceAfter: sourceAfter,
		TargetBalanceAfter: targetAfter,
		Status:             shared.TransactionStatus(doc.Status),
		CorrelationID:      doc.CorrelationID,
		OccurredAt:         doc.OccurredAt.UTC(),
		ProjectedAt:        doc.ProjectedAt.UTC(),
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	// StringFixed keeps the ledger scale; String would drop trailing zeros
	fixed := d.StringFixed(transfer.AmountScale)
	value, err := primitive.ParseDecimal128(fixed)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to decimal128: %w", fixed, err)
	}
	return value, nil
}

func fromDecimal128(value primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to convert decimal128 %s: %w", value.String(), err)
	}
	return d, nil
}
