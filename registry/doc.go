/*
Package registry maintains the runtime mappings the storage layer needs to
turn typed records into DynamoDB items and back.

Two registries are provided:

Index maps associate a Go type with the key templates used to derive its
partition and sort key attributes. Macros are expanded from the entity's
fields at persist time:

	registry.RegisterIndexMap[storagemodels.Record](map[string]string{
	    "PK": "INV#{PartitionKey}",
	    "SK": "REC#{ID}",
	})

Type registrations map an EntityType attribute value, injected on every
stored item, to an unmarshal function so listing queries can rebuild each
item as its proper type even in single-table deployments that mix entities:

	registry.RegisterType("Record", func(item map[string]types.AttributeValue) (interface{}, error) {
	    var r storagemodels.Record
	    err := attributevalue.UnmarshalMap(item, &r)
	    return &r, err
	})

Both registries are safe for concurrent use.
*/
package registry
