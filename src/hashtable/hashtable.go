// Package hashtable is the lock-striped hash table the supplemental page
// table is built on: bucket-level locks for Set/Del, and a lock-free Get
// that walks bucket chains with atomic pointer loads so a lookup never
// blocks behind an insert or delete in a different bucket.
package hashtable

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"unsafe"
)

type elem_t struct {
	key     interface{}
	value   interface{}
	keyHash uint32
	next    *elem_t
}

type bucket_t struct {
	sync.Mutex
	first *elem_t
}

func (b *bucket_t) iter(f func(interface{}, interface{}) bool) bool {
	for e := loadptr(&b.first); e != nil; e = loadptr(&e.next) {
		if f(e.key, e.value) {
			return true
		}
	}
	return false
}

// Hashtable_t maps keys to values, bucket-chained with a lock per bucket.
// Backs the supplemental page table's va->Page map.
type Hashtable_t struct {
	table    []*bucket_t
	maxchain int
}

// MkHash allocates a new Hashtable_t with size buckets.
func MkHash(size int) *Hashtable_t {
	ht := &Hashtable_t{}
	ht.table = make([]*bucket_t, size)
	ht.maxchain = 1
	for i := range ht.table {
		ht.table[i] = &bucket_t{}
	}
	return ht
}

// Size returns the total number of elements stored in the table.
func (ht *Hashtable_t) Size() int {
	n := 0
	for _, b := range ht.table {
		b.Lock()
		for e := b.first; e != nil; e = e.next {
			n++
		}
		b.Unlock()
	}
	return n
}

// Get looks up key without taking any lock, matching a concurrent SPT Find
// that must never block behind an Insert/Remove elsewhere in the table.
func (ht *Hashtable_t) Get(key interface{}) (interface{}, bool) {
	kh := khash(key)
	b := ht.table[ht.hash(kh)]
	n := 0
	for e := loadptr(&b.first); e != nil; e = loadptr(&e.next) {
		if e.keyHash == kh && equal(e.key, key) {
			return e.value, true
		}
		n++
		if n > ht.maxchain {
			ht.maxchain = n
		}
	}
	return nil, false
}

// Set inserts a key/value pair, returning (previous value, false) if key
// already existed, or (value, true) on a fresh insert. Buckets are kept
// sorted by hash so Del can stop early on a non-existent key.
func (ht *Hashtable_t) Set(key interface{}, value interface{}) (interface{}, bool) {
	kh := khash(key)
	b := ht.table[ht.hash(kh)]
	b.Lock()
	defer b.Unlock()

	add := func(last *elem_t) {
		if last == nil {
			n := &elem_t{key: key, value: value, keyHash: kh, next: b.first}
			storeptr(&b.first, n)
		} else {
			n := &elem_t{key: key, value: value, keyHash: kh, next: last.next}
			storeptr(&last.next, n)
		}
	}

	var last *elem_t
	for e := b.first; e != nil; e = e.next {
		if e.keyHash == kh && equal(e.key, key) {
			return e.value, false
		}
		if kh < e.keyHash {
			add(last)
			return value, true
		}
		last = e
	}
	add(last)
	return value, true
}

// Del removes key from the table. Panics if key is not present, matching
// the caller contract every SPT.Remove site relies on: callers must Find
// before Del.
func (ht *Hashtable_t) Del(key interface{}) {
	kh := khash(key)
	b := ht.table[ht.hash(kh)]
	b.Lock()
	defer b.Unlock()

	rem := func(last *elem_t, e *elem_t) {
		if last == nil {
			storeptr(&b.first, e.next)
		} else {
			storeptr(&last.next, e.next)
		}
	}

	var last *elem_t
	for e := b.first; e != nil; e = e.next {
		if e.keyHash == kh && equal(e.key, key) {
			rem(last, e)
			return
		}
		if kh < e.keyHash {
			panic("hashtable: del of non-existing key")
		}
		last = e
	}
	panic("hashtable: del of non-existing key")
}

// Iter applies f to every key/value pair until f returns true, giving the
// unspecified-but-stable full traversal a Kill/fork-copy walk needs.
func (ht *Hashtable_t) Iter(f func(interface{}, interface{}) bool) bool {
	for _, b := range ht.table {
		if b.iter(f) {
			return true
		}
	}
	return false
}

func (ht *Hashtable_t) hash(keyHash uint32) int {
	return int(keyHash % uint32(len(ht.table)))
}

// Without an explicit memory model, it is hard to know this is correct on
// every arch; LoadPointer/StorePointer issue no fence. Works on amd64,
// which is the only target this table runs under.
func loadptr(e **elem_t) *elem_t {
	ptr := (*unsafe.Pointer)(unsafe.Pointer(e))
	p := atomic.LoadPointer(ptr)
	return (*elem_t)(p)
}

func storeptr(p **elem_t, n *elem_t) {
	ptr := (*unsafe.Pointer)(unsafe.Pointer(p))
	atomic.StorePointer(ptr, unsafe.Pointer(n))
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func khash(key interface{}) uint32 {
	return uint32(2654435761) * hash(key)
}

func hash(key interface{}) uint32 {
	switch x := key.(type) {
	case int:
		return uint32(x)
	case int32:
		return uint32(x)
	case uintptr:
		return uint32(x)
	case string:
		return hashString(x)
	}
	panic(fmt.Errorf("hashtable: unsupported key type %T", key))
}

func equal(key1 interface{}, key2 interface{}) bool {
	switch x := key1.(type) {
	case int32:
		return x == key2.(int32)
	case int:
		return x == key2.(int)
	case uintptr:
		return x == key2.(uintptr)
	case string:
		return x == key2.(string)
	}
	panic(fmt.Errorf("hashtable: unsupported key type %T", key1))
}
