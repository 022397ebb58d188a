package usecases

// Partition groups items by a derived key and drops every partition with fewer than two members.
// Items for which key reports false are excluded. Partitions are returned in order of the first
// occurrence of their key, and members keep their input order, so sorted input yields sorted output.
func Partition[T any, K comparable](items []T, key func(T) (K, bool)) [][]T {
	index := make(map[K]int)
	var buckets [][]T

	for _, item := range items {
		k, ok := key(item)
		if !ok {
			continue
		}
		i, exists := index[k]
		if !exists {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], item)
	}

	partitions := make([][]T, 0, len(buckets))
	for _, bucket := range buckets {
		if len(bucket) > 1 {
			partitions = append(partitions, bucket)
		}
	}
	return partitions
}
