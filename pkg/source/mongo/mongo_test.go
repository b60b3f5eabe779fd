package mongo

import (
	"testing"

	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func decode(t *testing.T, in bson.M) (document, bson.Raw) {
	t.Helper()
	raw, err := bson.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var doc document
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	return doc, raw
}

func TestToFeatureWithProperties(t *testing.T) {
	oid := primitive.NewObjectID()
	doc, raw := decode(t, bson.M{
		"_id":        oid,
		"properties": bson.M{"name": "Central Park"},
		"geometry":   bson.M{"type": "Point", "coordinates": bson.A{-73.97, 40.78}},
	})

	f, err := toFeature(doc, raw)
	if err != nil {
		t.Fatalf("toFeature() error: %v", err)
	}
	if f.ID != oid.Hex() {
		t.Errorf("ID = %q, want %q", f.ID, oid.Hex())
	}
	if name, _ := f.Name(); name != "Central Park" {
		t.Errorf("Name() = %q", name)
	}
	if p, ok := f.Geometry.(orb.Point); !ok || p != (orb.Point{-73.97, 40.78}) {
		t.Errorf("Geometry = %#v", f.Geometry)
	}
}

func TestToFeatureTopLevelFields(t *testing.T) {
	doc, raw := decode(t, bson.M{
		"_id":      "pier-17",
		"name":     "Pier 17",
		"kind":     "pier",
		"geometry": bson.M{"type": "LineString", "coordinates": bson.A{bson.A{0.0, 0.0}, bson.A{1.0, 1.0}}},
	})

	f, err := toFeature(doc, raw)
	if err != nil {
		t.Fatalf("toFeature() error: %v", err)
	}
	if f.ID != "pier-17" {
		t.Errorf("ID = %q", f.ID)
	}
	if _, ok := f.Properties["geometry"]; ok {
		t.Error("geometry should not be copied into properties")
	}
	if f.Properties["kind"] != "pier" {
		t.Errorf("kind = %v", f.Properties["kind"])
	}
	if _, ok := f.Geometry.(orb.LineString); !ok {
		t.Errorf("Geometry = %#v, want LineString", f.Geometry)
	}
}
