package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

// bsonKeys builds an ordered document from alternating key/value pairs.
func bsonKeys(kv ...any) bson.D {
	d := make(bson.D, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		d = append(d, bson.E{Key: kv[i].(string), Value: kv[i+1]})
	}
	return d
}

// listFilter translates normalized params into a posts filter. ok is false
// when the category cannot match any document.
func listFilter(p query.Params) (filter bson.M, ok bool) {
	filter = bson.M{"isPublished": true}

	if p.CategoryID != "" {
		oid, err := primitive.ObjectIDFromHex(p.CategoryID)
		if err != nil {
			return nil, false
		}
		filter["category"] = oid
	}

	if p.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(p.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"excerpt": re},
		}
	}
	return filter, true
}

// sortSpec is the total order for each sort key; _id breaks ties.
func sortSpec(s query.Sort) bson.D {
	switch s {
	case query.SortOldest:
		return bsonKeys("createdAt", 1, "_id", 1)
	case query.SortMostViewed:
		return bsonKeys("viewCount", -1, "createdAt", -1, "_id", -1)
	case query.SortTitleAscending:
		return bsonKeys("title", 1, "_id", 1)
	default:
		return bsonKeys("createdAt", -1, "_id", -1)
	}
}

// listPipeline sorts and paginates before joining author and category
// names, so the lookups only run for the returned page.
func listPipeline(filter bson.M, p query.Params) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: sortSpec(p.Sort)}},
		{{Key: "$skip", Value: int64(p.Skip())}},
		{{Key: "$limit", Value: int64(p.PageSize)}},
		{{Key: "$lookup", Value: bsonKeys(
			"from", usersCollection,
			"localField", "author",
			"foreignField", "_id",
			"as", "authorDoc",
		)}},
		{{Key: "$lookup", Value: bsonKeys(
			"from", categoriesCollection,
			"localField", "category",
			"foreignField", "_id",
			"as", "categoryDoc",
		)}},
		{{Key: "$project", Value: bsonKeys(
			"title", 1,
			"slug", 1,
			"excerpt", 1,
			"featuredImage", 1,
			"createdAt", 1,
			"viewCount", 1,
			"author", 1,
			"category", 1,
			"authorName", bsonKeys("$arrayElemAt", bson.A{"$authorDoc.name", 0}),
			"categoryName", bsonKeys("$arrayElemAt", bson.A{"$categoryDoc.name", 0}),
		)}},
	}
}

// postUpdateDoc builds the $set document for an owned update.
func postUpdateDoc(upd ports.PostUpdate) bson.M {
	set := bson.M{
		"title":     upd.Title,
		"content":   upd.Content,
		"excerpt":   upd.Excerpt,
		"category":  optionalObjectID(upd.CategoryID),
		"updatedAt": upd.UpdatedAt,
	}
	if upd.FeaturedImage != nil {
		set["featuredImage"] = *upd.FeaturedImage
	}
	if upd.IsPublished != nil {
		set["isPublished"] = *upd.IsPublished
	}
	return bson.M{"$set": set}
}
