package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stockroom/backend/internal/models"
)

const mongoOpTimeout = 10 * time.Second

// MongoItemRepository implements ItemRepository against a MongoDB
// "items" collection.
type MongoItemRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoItemDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Sku         string             `bson:"sku"`
	Name        string             `bson:"name"`
	Qty         int64              `bson:"qty"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Images      []string           `bson:"images"`
	Starred     bool               `bson:"starred"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func NewMongoItemRepository(ctx context.Context, mongoURI, dbName string) (*MongoItemRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	coll := client.Database(dbName).Collection("items")

	// Best-effort index.
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})

	log.Printf("MongoDB connected: db=%s", dbName)
	return &MongoItemRepository{client: client, coll: coll}, nil
}

func (r *MongoItemRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func itemDocToModel(d mongoItemDoc) *models.Item {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &models.Item{
		ID:          d.ID.Hex(),
		Sku:         d.Sku,
		Name:        d.Name,
		Qty:         d.Qty,
		Description: d.Description,
		Price:       d.Price,
		Images:      images,
		Starred:     d.Starred,
	}
}

func (r *MongoItemRepository) FindAll(ctx context.Context) ([]*models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []*models.Item{}
	for cursor.Next(ctx) {
		var doc mongoItemDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, itemDocToModel(doc))
	}
	return items, cursor.Err()
}

func (r *MongoItemRepository) FindByID(ctx context.Context, id string) (*models.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Malformed ids can never match a record.
		return nil, ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var doc mongoItemDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return itemDocToModel(doc), nil
}

func (r *MongoItemRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	doc := mongoItemDoc{
		ID:          primitive.NewObjectID(),
		Sku:         item.Sku,
		Name:        item.Name,
		Qty:         item.Qty,
		Description: item.Description,
		Price:       item.Price,
		Images:      item.Images,
		Starred:     item.Starred,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return itemDocToModel(doc), nil
}

func (r *MongoItemRepository) UpdateByID(ctx context.Context, id string, update models.ItemUpdate) (*models.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	set := bson.M{
		"sku":         update.Sku,
		"name":        update.Name,
		"qty":         update.Qty,
		"description": update.Description,
		"price":       update.Price,
		"starred":     update.Starred,
	}
	if update.Images != nil {
		set["images"] = *update.Images
	}

	res := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var doc mongoItemDoc
	if err := res.Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return itemDocToModel(doc), nil
}

func (r *MongoItemRepository) DeleteByID(ctx context.Context, id string) (*models.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrItemNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var doc mongoItemDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return itemDocToModel(doc), nil
}
