package chanfield

type WorkerImpl struct {
	Jobs chan int
}
