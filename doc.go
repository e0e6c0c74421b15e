/*
Package inventorystore provides a partitioned inventory record store with
atomic batch mutations over DynamoDB.

Records live under a partition key (for example, a product category), the
unit of transactional atomicity in the backing store. Every write rewrites
an opaque version tag that serves as the optimistic-concurrency precondition
on updates and deletes.

The centerpiece is the batch mutation engine: an ordered list of create,
update or delete operations is grouped by partition, bounded to the store's
transactional batch size, executed concurrently across partitions, and
reported back as one result per input operation, in input order, with
summary counts. Partial failure is a first-class outcome: one partition's
conflict never disturbs another's commit.

Basic Usage:

	cfg, err := config.Load("inventorystore.yaml")
	if err != nil { ... }

	client, err := inventorystore.New(ctx, cfg)
	if err != nil { ... }

	ops := make([]batch.Operation, 0, len(inputs))
	for _, in := range inputs {
	    op, err := batch.NewCreate(in)
	    if err != nil { ... }
	    ops = append(ops, op)
	}

	res, err := client.ExecuteBatch(ctx, batch.KindCreate, ops)
	if err != nil { ... }
	fmt.Printf("%d of %d committed\n", res.Summary.Succeeded, res.Summary.Requested)

Single-item CRUD and partition listing are available on the same Client.

For more information, see the documentation at https://github.com/suparena/inventorystore
*/
package inventorystore
