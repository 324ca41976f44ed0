package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// document is the row layout of the SQL backend: one BSON body per document.
type document struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:24"`
	Body       []byte
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func (document) TableName() string {
	return "documents"
}

// SQLStore keeps documents in a relational database through gorm. Embedded
// array changes run as read-modify-write inside a transaction that locks the
// owner rows, so they are serialized per owner.
type SQLStore struct {
	db     *gorm.DB
	now    func() time.Time
	unique map[Collection][]string
}

// NewSQLStore migrates the documents table and returns the store.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &SQLStore{db: db, now: time.Now, unique: uniqueFields}, nil
}

func (s *SQLStore) Insert(ctx context.Context, coll Collection, doc any) error {
	now := s.now()
	beforeInsert(doc, now)

	body, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", coll, err)
	}
	id, ok := bson.Raw(body).Lookup("_id").ObjectIDOK()
	if !ok {
		return fmt.Errorf("insert %s: document has no object id", coll)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&document{}).
			Where("collection = ? AND id = ?", coll, id.Hex()).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}

		decoded, err := decodeDoc(body)
		if err != nil {
			return err
		}
		if err := s.checkUnique(tx, coll, id.Hex(), decoded); err != nil {
			return err
		}

		row := document{Collection: string(coll), ID: id.Hex(), Body: body, CreatedAt: now, UpdatedAt: now}
		return tx.Create(&row).Error
	})
}

func (s *SQLStore) FindByID(ctx context.Context, coll Collection, id primitive.ObjectID, out any) error {
	var row document
	if err := s.db.WithContext(ctx).
		First(&row, "collection = ? AND id = ?", coll, id.Hex()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return bson.Unmarshal(row.Body, out)
}

func (s *SQLStore) FindOne(ctx context.Context, coll Collection, filter Filter, out any) error {
	rows, err := s.match(s.db.WithContext(ctx), coll, filter)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return bson.Unmarshal(rows[0].row.Body, out)
}

func (s *SQLStore) Find(ctx context.Context, coll Collection, filter Filter, out any) error {
	rows, err := s.match(s.db.WithContext(ctx), coll, filter)
	if err != nil {
		return err
	}

	slice := reflect.ValueOf(out)
	if slice.Kind() != reflect.Pointer || slice.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("find %s: out must point to a slice", coll)
	}
	elemType := slice.Elem().Type().Elem()
	result := reflect.MakeSlice(slice.Elem().Type(), 0, len(rows))
	for _, r := range rows {
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(r.row.Body, elem.Interface()); err != nil {
			return fmt.Errorf("decode %s/%s: %w", coll, r.row.ID, err)
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Elem().Set(result)
	return nil
}

func (s *SQLStore) UpdateByID(ctx context.Context, coll Collection, id primitive.ObjectID, set Fields, out any) error {
	now := s.now()
	var body []byte
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, doc, err := s.lockOne(tx, coll, id)
		if err != nil {
			return err
		}
		applySet(doc, withUpdatedAt(set, now))
		if err := s.checkUnique(tx, coll, row.ID, doc); err != nil {
			return err
		}
		body, err = s.save(tx, row, doc, now)
		return err
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return bson.Unmarshal(body, out)
}

func (s *SQLStore) UpdateMany(ctx context.Context, coll Collection, filter Filter, set Fields) (int64, error) {
	now := s.now()
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.match(locked(tx), coll, filter)
		if err != nil {
			return err
		}
		for _, r := range rows {
			applySet(r.doc, withUpdatedAt(set, now))
			if _, err := s.save(tx, r.row, r.doc, now); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *SQLStore) ReplaceByID(ctx context.Context, coll Collection, id primitive.ObjectID, doc any) error {
	now := s.now()
	touch(doc, now)

	body, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", coll, err)
	}
	decoded, err := decodeDoc(body)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, _, err := s.lockOne(tx, coll, id)
		if err != nil {
			return err
		}
		if err := s.checkUnique(tx, coll, row.ID, decoded); err != nil {
			return err
		}
		return tx.Model(&document{}).
			Where("collection = ? AND id = ?", coll, row.ID).
			Updates(map[string]any{"body": body, "updated_at": now}).Error
	})
}

func (s *SQLStore) DeleteByID(ctx context.Context, coll Collection, id primitive.ObjectID, out any) error {
	var body []byte
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, _, err := s.lockOne(tx, coll, id)
		if err != nil {
			return err
		}
		body = row.Body
		return tx.Where("collection = ? AND id = ?", coll, row.ID).Delete(&document{}).Error
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return bson.Unmarshal(body, out)
}

func (s *SQLStore) DeleteMany(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.match(locked(tx), coll, filter)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.row.ID)
		}
		res := tx.Where("collection = ? AND id IN ?", coll, ids).Delete(&document{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

func (s *SQLStore) PushEmbedded(ctx context.Context, coll Collection, ownerID primitive.ObjectID, field string, elem any) error {
	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, doc, err := s.lockOne(tx, coll, ownerID)
		if err != nil {
			return err
		}
		pushElem(doc, field, elem)
		doc["updatedAt"] = now
		_, err = s.save(tx, row, doc, now)
		return err
	})
}

func (s *SQLStore) SetEmbedded(ctx context.Context, coll Collection, field string, elemID primitive.ObjectID, set Fields) (int64, error) {
	return s.eachOwner(ctx, coll, field, elemID, func(doc bson.M) bool {
		return setElem(doc, field, elemID, set)
	})
}

func (s *SQLStore) PullEmbedded(ctx context.Context, coll Collection, field string, elemID primitive.ObjectID) (int64, error) {
	return s.eachOwner(ctx, coll, field, elemID, func(doc bson.M) bool {
		return pullElem(doc, field, elemID)
	})
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// uniqueFields mirrors the unique indexes of the Mongo backend.
var uniqueFields = map[Collection][]string{
	Users: {"email"},
}

// checkUnique fails with ErrDuplicate when another document of coll shares a
// unique field value with doc.
func (s *SQLStore) checkUnique(tx *gorm.DB, coll Collection, id string, doc bson.M) error {
	for _, field := range s.unique[coll] {
		value, ok := doc[field]
		if !ok || value == nil || value == "" {
			continue
		}
		rows, err := s.match(tx, coll, Filter{field: value})
		if err != nil {
			return err
		}
		for _, r := range rows {
			if r.row.ID != id {
				return fmt.Errorf("%w: %s %v", ErrDuplicate, field, value)
			}
		}
	}
	return nil
}

type matchedRow struct {
	row document
	doc bson.M
}

func locked(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *SQLStore) match(tx *gorm.DB, coll Collection, filter Filter) ([]matchedRow, error) {
	var rows []document
	if err := tx.Where("collection = ?", coll).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	matched := make([]matchedRow, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeDoc(row.Body)
		if err != nil {
			return nil, err
		}
		if matchDoc(doc, filter) {
			matched = append(matched, matchedRow{row: row, doc: doc})
		}
	}
	return matched, nil
}

func (s *SQLStore) lockOne(tx *gorm.DB, coll Collection, id primitive.ObjectID) (document, bson.M, error) {
	var row document
	if err := locked(tx).First(&row, "collection = ? AND id = ?", coll, id.Hex()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row, nil, ErrNotFound
		}
		return row, nil, err
	}
	doc, err := decodeDoc(row.Body)
	return row, doc, err
}

func (s *SQLStore) save(tx *gorm.DB, row document, doc bson.M, now time.Time) ([]byte, error) {
	body, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", row.Collection, row.ID, err)
	}
	err = tx.Model(&document{}).
		Where("collection = ? AND id = ?", row.Collection, row.ID).
		Updates(map[string]any{"body": body, "updated_at": now}).Error
	return body, err
}

// eachOwner applies mutate to every owner embedding elemID in field and saves
// the ones it changed.
func (s *SQLStore) eachOwner(ctx context.Context, coll Collection, field string, elemID primitive.ObjectID, mutate func(bson.M) bool) (int64, error) {
	now := s.now()
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.match(locked(tx), coll, Filter{field + "._id": elemID})
		if err != nil {
			return err
		}
		for _, r := range rows {
			if !mutate(r.doc) {
				continue
			}
			r.doc["updatedAt"] = now
			if _, err := s.save(tx, r.row, r.doc, now); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}
