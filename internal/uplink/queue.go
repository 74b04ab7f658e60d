package uplink

// Capacity is the number of jobs the gateway holds while the uplink is slow.
const Capacity = 20

// Queue is a fixed ring of jobs. When full, Enqueue evicts the oldest job.
// It is owned by a single goroutine.
type Queue struct {
	buf     [Capacity]Job
	head    int
	size    int
	evicted uint64
}

// Enqueue appends j and reports whether the oldest job was evicted.
func (q *Queue) Enqueue(j Job) bool {
	if q.size == Capacity {
		q.buf[q.head] = j
		q.head = (q.head + 1) % Capacity
		q.evicted++
		return true
	}
	q.buf[(q.head+q.size)%Capacity] = j
	q.size++
	return false
}

// Dequeue removes and returns the oldest job.
func (q *Queue) Dequeue() (Job, bool) {
	if q.size == 0 {
		return Job{}, false
	}
	j := q.buf[q.head]
	q.buf[q.head] = Job{}
	q.head = (q.head + 1) % Capacity
	q.size--
	return j, true
}

func (q *Queue) Len() int { return q.size }

// Evicted returns how many jobs were overwritten since creation.
func (q *Queue) Evicted() uint64 { return q.evicted }

// Snapshot returns the queued jobs oldest first.
func (q *Queue) Snapshot() []Job {
	out := make([]Job, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.buf[(q.head+i)%Capacity])
	}
	return out
}
