package datastructure

import (
	"errors"
	"math"
)

var (
	ErrEmptyHeap     = errors.New("heap is empty")
	ErrItemNotFound  = errors.New("item is not in the heap")
	ErrDuplicateItem = errors.New("item is already in the heap")
)

type PriorityQueueNode[T comparable] struct {
	rank float64
	item T
}

func (p PriorityQueueNode[T]) GetItem() T {
	return p.item
}

func (p PriorityQueueNode[T]) GetRank() float64 {
	return p.rank
}

func NewPriorityQueueNode[T comparable](rank float64, item T) PriorityQueueNode[T] {
	return PriorityQueueNode[T]{rank: rank, item: item}
}

// MinHeap d-ary heap priorityqueue with an index from item to its position in the heap slice,
// so DecreaseKey can find an item in O(1) instead of scanning.
type MinHeap[T comparable] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
	d    int
}

func NewBinaryHeap[T comparable]() *MinHeap[T] {
	return NewdAryHeap[T](2)
}

func NewFourAryHeap[T comparable]() *MinHeap[T] {
	return NewdAryHeap[T](4)
}

func NewdAryHeap[T comparable](d int) *MinHeap[T] {
	if d < 2 {
		d = 2
	}
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
		d:    d,
	}
}

func (h *MinHeap[T]) Preallocate(maxSearchSize int) {
	h.heap = make([]PriorityQueueNode[T], 0, maxSearchSize)
	h.pos = make(map[T]int, maxSearchSize)
}

// parent get index of the parent
func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / h.d
}

// heapifyUp swap with the parent while the parent has a greater rank. O(logN) tree height.
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.heap[index].rank < h.heap[h.parent(index)].rank {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

// heapifyDown swap with the smallest child while that child has a smaller rank. O(logN) tree height.
func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		leftMostChild := index*h.d + 1
		if leftMostChild >= len(h.heap) {
			return
		}

		sentinel := leftMostChild + h.d
		if sentinel > len(h.heap) {
			sentinel = len(h.heap)
		}

		smallest := leftMostChild
		for i := leftMostChild + 1; i < sentinel; i++ {
			if h.heap[i].rank < h.heap[smallest].rank {
				smallest = i
			}
		}

		if !(h.heap[smallest].rank < h.heap[index].rank) {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]

	h.pos[h.heap[i].item] = i
	h.pos[h.heap[j].item] = j
}

func (h *MinHeap[T]) IsEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Clear() {
	h.heap = h.heap[:0]
	clear(h.pos)
}

func (h *MinHeap[T]) Contains(item T) bool {
	_, ok := h.pos[item]
	return ok
}

// GetRank rank of item, +Inf if item is not in the heap
func (h *MinHeap[T]) GetRank(item T) float64 {
	p, ok := h.pos[item]
	if !ok {
		return math.Inf(1)
	}
	return h.heap[p].rank
}

// GetMin get the minimum item (index 0) without removing it
func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return PriorityQueueNode[T]{}, ErrEmptyHeap
	}
	return h.heap[0], nil
}

// Insert append item at the bottom of the heap then heapifyUp. O(logN)
func (h *MinHeap[T]) Insert(item T, rank float64) error {
	if _, ok := h.pos[item]; ok {
		return ErrDuplicateItem
	}
	h.heap = append(h.heap, NewPriorityQueueNode(rank, item))
	index := len(h.heap) - 1
	h.pos[item] = index
	h.heapifyUp(index)
	return nil
}

// ExtractMin pop the minimum item (index 0). the last item takes its place and is pushed down. O(logN)
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return PriorityQueueNode[T]{}, ErrEmptyHeap
	}
	root := h.heap[0]

	last := len(h.heap) - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.pos, root.item)

	if len(h.heap) > 0 {
		h.heapifyDown(0)
	}

	return root, nil
}

// DecreaseKey update the rank of item. despite the name the new rank may also be larger:
// the item moves up when it is now smaller than its parent and down otherwise. O(logN)
func (h *MinHeap[T]) DecreaseKey(item T, rank float64) error {
	itemPos, ok := h.pos[item]
	if !ok {
		return ErrItemNotFound
	}

	h.heap[itemPos].rank = rank
	if itemPos != 0 && h.heap[itemPos].rank < h.heap[h.parent(itemPos)].rank {
		h.heapifyUp(itemPos)
	} else {
		h.heapifyDown(itemPos)
	}
	return nil
}
