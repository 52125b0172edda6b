/*
Package termdict implements the sorted term dictionary of an index segment.

A dictionary associates every term, an arbitrary byte string, with a value
of type V. Terms are kept in an automaton which maps each term to an address,
the offset of the term's serialized value within a separate value blob.

    File layout:
    +-----------+------------+---------------------+
    | automaton | value blob | dictionary footer   |
    +-----------+------------+---------------------+

    Dictionary footer:
    +-------------------------+--------------------------+-----------------------------+------------------+
    | automaton size (8 bytes)| value blob size (8 bytes)| value blob xxhash (8 bytes) |  magic (8 bytes) |
    +-------------------------+--------------------------+-----------------------------+------------------+

The value blob is the concatenation of each value's binser encoding in
insertion order. Dictionaries are built once by a Builder and are immutable
afterwards, they can be shared between goroutines. Streamers and Mergers
iterate over terms in byte-wise order and are not safe for concurrent use.
*/
package termdict
