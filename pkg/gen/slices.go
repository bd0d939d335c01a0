package gen

// DeleteFromSliceUnordered removes element i by swapping the last element into
// its place. Order is not preserved.
func DeleteFromSliceUnordered[T any](slice []T, i int) []T {
	var empty T
	slice[i] = slice[len(slice)-1]
	slice[len(slice)-1] = empty
	return slice[:len(slice)-1]
}
