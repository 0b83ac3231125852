package simulation

import (
	"reflect"
	"testing"
)

func TestPartitionSizes(t *testing.T) {
	tests := []struct {
		name     string
		citizens int
		brokers  int
		want     []int
	}{
		{"even split", 100, 5, []int{20, 20, 20, 20, 20}},
		{"remainder to first brokers", 12, 5, []int{3, 3, 2, 2, 2}},
		{"fewer citizens than brokers", 3, 5, []int{1, 1, 1, 0, 0}},
		{"no citizens", 0, 3, []int{0, 0, 0}},
		{"single broker", 7, 1, []int{7}},
		{"no brokers", 10, 0, nil},
		{"negative brokers", 10, -2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PartitionSizes(tt.citizens, tt.brokers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PartitionSizes(%d, %d) = %v, want %v", tt.citizens, tt.brokers, got, tt.want)
			}
		})
	}
}

func TestPartitionSizes_Balanced(t *testing.T) {
	for citizens := 0; citizens <= 40; citizens++ {
		for brokers := 1; brokers <= 9; brokers++ {
			sizes := PartitionSizes(citizens, brokers)
			total, lo, hi := 0, sizes[0], sizes[0]
			for _, s := range sizes {
				total += s
				lo = min(lo, s)
				hi = max(hi, s)
			}
			if total != citizens {
				t.Fatalf("PartitionSizes(%d, %d) sums to %d", citizens, brokers, total)
			}
			if hi-lo > 1 {
				t.Fatalf("PartitionSizes(%d, %d) = %v is unbalanced", citizens, brokers, sizes)
			}
		}
	}
}

func TestAssignBrokers(t *testing.T) {
	got := AssignBrokers(7, 3)
	want := []int{0, 0, 0, 1, 1, 2, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AssignBrokers(7, 3) = %v, want %v", got, want)
	}

	if got := AssignBrokers(5, 0); got != nil {
		t.Errorf("AssignBrokers(5, 0) = %v, want nil", got)
	}
	if got := AssignBrokers(0, 4); len(got) != 0 {
		t.Errorf("AssignBrokers(0, 4) = %v, want empty", got)
	}
}
