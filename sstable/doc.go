/*
Package sstable contains an immutable sorted table which maps arbitrary
byte-string keys to uint64 values. Keys must be appended in strictly
increasing byte-wise order.

Data Structure Documentation

Table

A table contains a series of data blocks followed by an index and
a table footer.

    Table layout:
    +---------+---------+---------+-------------+--------------+
    | block 1 |   ...   | block n | block index | table footer |
    +---------+---------+---------+-------------+--------------+

    Block index:
    +-------------------------+-----------+-------------------+-------------------------+-----------+-------------------------+-------+
    | max key len 1 (varint)  | max key 1 | offset 1 (varint) | max key len 2 (varint)  | max key 2 | offset 2 (varint,delta) |  ...  |
    +-------------------------+-----------+-------------------+-------------------------+-----------+-------------------------+-------+

    Table footer:
    +------------------------+------------------+
    | index offset (8 bytes) |  magic (8 bytes) |
    +------------------------+------------------+

Block

A block comprises of a series of sections, followed by a section
index and a single-byte compression type indicator.

    Block layout:
    +-----------+---------+-----------+---------------+---------------------------+
    | section 1 |   ...   | section n | section index | compression type (1-byte) |
    +-----------+---------+-----------+---------------+---------------------------+

    Section index:
    +----------------------------+-------+----------------------------+-------------------------------+
    | section offset 2 (4 bytes) |  ...  | section offset n (4 bytes) |  number of sections (4 bytes) |
    +----------------------------+-------+----------------------------+-------------------------------+

Section

A section is a series of key/value pairs. Keys are prefix-compressed against
their predecessor, the first key of each section is stored in full (shared = 0)
and acts as a restart point for seeks.

    +-------------------+---------------------+----------------+------------------+-------------------+-------+
    | shared 1 (varint) | unshared 1 (varint) | suffix 1 (var) | value 1 (varint) | shared 2 (varint) |  ...  |
    +-------------------+---------------------+----------------+------------------+-------------------+-------+
*/
package sstable
