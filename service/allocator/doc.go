// Package allocator owns the pool of physical frames. It is the only service
// allowed to hand out or reclaim frames; address spaces borrow frames from it
// and return them when regions are unmapped or the owning task is released.
package allocator
