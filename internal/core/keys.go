package core

import "strconv"

// EncodeItemKey canonically encodes a primary key (PK, SK) into a
// collision-free, comparable string: len(PK)+":"+PK+NUL+len(SK)+":"+SK.
func EncodeItemKey(pk, sk string) string {
	return strconv.Itoa(len(pk)) + ":" + pk + "\x00" + strconv.Itoa(len(sk)) + ":" + sk
}

// EncodeIndexEntryKey builds the ordered-partition-map entry key for a
// given index range value and encoded item key: rangeValue+NUL+itemKey.
// Lexicographic ordering of this string is the iteration order.
func EncodeIndexEntryKey(rangeValue, itemKey string) string {
	return rangeValue + "\x00" + itemKey
}
