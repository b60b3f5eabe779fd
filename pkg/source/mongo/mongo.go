// Package mongo reads GeoJSON-shaped documents from a MongoDB collection.
//
// Each document needs a GeoJSON "geometry" field. An optional "properties"
// sub-document becomes the feature's properties; without it, the remaining
// top-level fields are used.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/mapstyle/pkg/feature"
)

// Source is a connected collection.
type Source struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri and verifies the connection.
func Open(ctx context.Context, uri, database, collection string) (*Source, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &Source{client: client, coll: client.Database(database).Collection(collection)}, nil
}

type document struct {
	ID         any      `bson:"_id"`
	Properties bson.M   `bson:"properties,omitempty"`
	Geometry   bson.Raw `bson:"geometry"`
}

// Features returns every document that carries a geometry.
func (s *Source) Features(ctx context.Context) ([]*feature.Feature, error) {
	cur, err := s.coll.Find(ctx, bson.M{"geometry": bson.M{"$exists": true}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*feature.Feature
	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		f, err := toFeature(doc, cur.Current)
		if err != nil {
			return nil, fmt.Errorf("document %v: %w", doc.ID, err)
		}
		out = append(out, f)
	}
	return out, cur.Err()
}

func toFeature(doc document, raw bson.Raw) (*feature.Feature, error) {
	js, err := bson.MarshalExtJSON(doc.Geometry, false, false)
	if err != nil {
		return nil, err
	}
	g, err := geojson.UnmarshalGeometry(js)
	if err != nil {
		return nil, err
	}

	props := geojson.Properties{}
	if doc.Properties != nil {
		for k, v := range doc.Properties {
			props[k] = v
		}
	} else {
		var all bson.M
		if err := bson.Unmarshal(raw, &all); err != nil {
			return nil, err
		}
		for k, v := range all {
			if k != "_id" && k != "geometry" {
				props[k] = v
			}
		}
	}

	return &feature.Feature{
		ID:         idString(doc.ID),
		Properties: props,
		Geometry:   g.Geometry(),
	}, nil
}

func idString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Close disconnects the client.
func (s *Source) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
