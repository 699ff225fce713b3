package validators

import "go.mongodb.org/mongo-driver/bson"

var BarValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"visitors", "visitorsCount", "createdAt"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},
			"yelpId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 256,
			},
			"visitors": bson.M{
				"bsonType":    "array",
				"uniqueItems": true,
				"items": bson.M{
					"bsonType":  "string",
					"minLength": 1,
					"maxLength": 256,
				},
			},
			"visitorsCount": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
			"createdAt": bson.M{"bsonType": "date"},
			"updatedAt": bson.M{"bsonType": "date"},
		},
	},
}
