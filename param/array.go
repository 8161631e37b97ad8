package param

import (
	"errors"
	"fmt"
	"sync"

	"github.com/anari-go/anari/atype"
)

// ErrAlreadyMapped and ErrNotMapped are sentinel errors Map/Unmap
// return so a caller holding a status callback (device.Base) can tell
// these specific conditions apart from a malformed request and report
// them with the right diag.Code (spec.md §8, "mapping an already-mapped
// array produces BusyResource").
var (
	ErrAlreadyMapped = errors.New("param: array already mapped")
	ErrNotMapped     = errors.New("param: array is not mapped")
	ErrTooLarge      = errors.New("param: array size too large")
)

// MaxArrayBytes bounds a single NewOwned allocation. It exists to turn a
// pathological dimension triple into a reported OutOfMemory instead of
// a multi-gigabyte make() call or an integer overflow in the element
// count.
const MaxArrayBytes = 1 << 32

// Deleter is invoked exactly once when an adopted Array's last
// reference is released, mirroring the C API's deleter callback
// (spec.md §4.4, "adopted memory ... the deleter runs exactly once,
// after the last reference is released"). userdata is passed back
// opaquely.
type Deleter func(data []byte, userdata any)

// Array is a 1D, 2D, or 3D typed array (spec.md §4.4). Memory is
// either owned (runtime-allocated, freed when the Array is released)
// or adopted (caller-allocated, released via Deleter exactly once).
// An Array tracks its own map/unmap state so the runtime can refuse a
// second concurrent mapping and can fail a release attempted while
// mapped (spec.md §4.4, "releasing a mapped array is an error").
//
// Grounded on engine/storage.go's span-based transport of raw bytes
// into a single backing buffer, generalized here to own the bytes
// itself instead of handing them to a GPU allocator.
type Array struct {
	mu sync.Mutex

	elemType atype.DataType
	dims     [3]uint64 // numItems1, numItems2, numItems3; 0 for unused higher dimensions

	data     []byte
	adopted  bool
	deleter  Deleter
	userdata any

	mapped        bool
	deleterCalled bool
}

// NewOwned allocates a zero-filled 1D/2D/3D array of elemType. dims
// must have 1-3 nonzero entries in leading position; trailing entries
// left at 0 mean "unused" (a 1D array has dims = [n, 0, 0]).
func NewOwned(elemType atype.DataType, dims [3]uint64) (*Array, error) {
	n, err := numElems(dims)
	if err != nil {
		return nil, err
	}
	sz := atype.Size(elemType)
	if sz == 0 {
		return nil, fmt.Errorf("param: %s has no fixed element size", elemType)
	}
	total := n * uint64(sz)
	if sz != 0 && total/uint64(sz) != n {
		return nil, ErrTooLarge
	}
	if total > MaxArrayBytes {
		return nil, ErrTooLarge
	}
	return &Array{
		elemType: elemType,
		dims:     dims,
		data:     make([]byte, total),
	}, nil
}

// NewAdopted wraps caller-supplied bytes; del runs exactly once when
// the array is released, or is a no-op if del is nil.
func NewAdopted(elemType atype.DataType, dims [3]uint64, data []byte, del Deleter, userdata any) (*Array, error) {
	n, err := numElems(dims)
	if err != nil {
		return nil, err
	}
	sz := atype.Size(elemType)
	if sz == 0 {
		return nil, fmt.Errorf("param: %s has no fixed element size", elemType)
	}
	if want := n * uint64(sz); uint64(len(data)) != want {
		return nil, fmt.Errorf("param: expected %d bytes for array, got %d", want, len(data))
	}
	return &Array{
		elemType: elemType,
		dims:     dims,
		data:     data,
		adopted:  true,
		deleter:  del,
		userdata: userdata,
	}, nil
}

func numElems(dims [3]uint64) (uint64, error) {
	if dims[0] == 0 {
		return 0, fmt.Errorf("param: array must have a nonzero first dimension")
	}
	n := dims[0]
	for _, d := range dims[1:] {
		if d == 0 {
			continue
		}
		n *= d
	}
	return n, nil
}

// ElemType returns the array's element data type.
func (a *Array) ElemType() atype.DataType { return a.elemType }

// Dims returns the array's dimensions; unused trailing dimensions are 0.
func (a *Array) Dims() [3]uint64 { return a.dims }

// Map returns the array's backing bytes for direct read/write access
// and marks the array mapped. It returns an error if already mapped
// (spec.md §4.4: "at most one outstanding mapping per array").
func (a *Array) Map() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mapped {
		return nil, ErrAlreadyMapped
	}
	a.mapped = true
	return a.data, nil
}

// Unmap clears the mapped state. It is an error to unmap an array that
// is not currently mapped.
func (a *Array) Unmap() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.mapped {
		return ErrNotMapped
	}
	a.mapped = false
	return nil
}

// Release runs the adopted-memory deleter exactly once (a no-op for
// owned arrays) and returns an error if the array is still mapped
// (spec.md §4.4).
func (a *Array) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mapped {
		return fmt.Errorf("param: cannot release a mapped array")
	}
	if a.adopted && !a.deleterCalled {
		a.deleterCalled = true
		if a.deleter != nil {
			a.deleter(a.data, a.userdata)
		}
	}
	return nil
}

// Bytes returns the array's backing bytes without affecting mapped
// state, for internal consumers (e.g. a backend reading committed
// geometry data) that do not go through the public map/unmap protocol.
func (a *Array) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}
