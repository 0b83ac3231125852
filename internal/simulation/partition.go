package simulation

// PartitionSizes returns how many citizens each broker serves when
// numCitizens are split as evenly as possible across numBrokers. The first
// numCitizens%numBrokers brokers take one extra citizen. It returns nil when
// numBrokers is not positive.
func PartitionSizes(numCitizens, numBrokers int) []int {
	if numBrokers <= 0 {
		return nil
	}
	if numCitizens < 0 {
		numCitizens = 0
	}

	base := numCitizens / numBrokers
	extra := numCitizens % numBrokers

	sizes := make([]int, numBrokers)
	for b := range sizes {
		sizes[b] = base
		if b < extra {
			sizes[b]++
		}
	}
	return sizes
}

// AssignBrokers returns the broker id of each citizen by index. Citizens are
// assigned in contiguous blocks: broker 0's citizens first, then broker 1's,
// following PartitionSizes.
func AssignBrokers(numCitizens, numBrokers int) []int {
	sizes := PartitionSizes(numCitizens, numBrokers)
	if sizes == nil {
		return nil
	}

	assignment := make([]int, 0, numCitizens)
	for brokerID, n := range sizes {
		for i := 0; i < n; i++ {
			assignment = append(assignment, brokerID)
		}
	}
	return assignment
}
