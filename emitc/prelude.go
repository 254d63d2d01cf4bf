package emitc

// prelude is the fixed runtime ABI header emitted verbatim ahead of
// every generated translation unit (spec §6.3): primitive typedefs,
// the panic/bounds-check/allocation helpers, and the generic hash-map
// backend that FINALIZATION instantiates a typed wrapper over for
// every key/value shape actually used in the program.
const prelude = `#include <stdint.h>
#include <stdlib.h>
#include <string.h>
#include <stdio.h>
#include <stdarg.h>

typedef int8_t   __truk_i8;
typedef int16_t  __truk_i16;
typedef int32_t  __truk_i32;
typedef int64_t  __truk_i64;
typedef uint8_t  __truk_u8;
typedef uint16_t __truk_u16;
typedef uint32_t __truk_u32;
typedef uint64_t __truk_u64;
typedef float    __truk_f32;
typedef double   __truk_f64;
typedef uint8_t  __truk_bool;
typedef void     __truk_void;

static void __truk_panic(const char* msg) {
	fprintf(stderr, "panic: %s\n", msg);
	abort();
}

static void __truk_bounds_check(__truk_u64 index, __truk_u64 len) {
	if (index >= len) {
		__truk_panic("index out of range");
	}
}

static void* __truk_alloc(__truk_u64 count, __truk_u64 elemSize) {
	void* p = calloc(count ? count : 1, elemSize);
	if (!p) {
		__truk_panic("allocation failure");
	}
	return p;
}

// ---- generic hash map backend (spec §6.3) ----
//
// Every map[K, V] shares this one type-erased implementation; the
// typed wrapper functions instantiated per key/value shape during
// FINALIZATION (see mapPreludeFor) cast to/from struct
// __truk_map_generic and forward key/value bytes by pointer.
// Each bucket entry is a flat byte run: [used][key bytes][value bytes].

struct __truk_map_generic {
	unsigned char* entries;
	__truk_u64 bucketCount;
	__truk_u64 count;
	__truk_u64 keySize;
	__truk_u64 valSize;
	__truk_u64 (*hashFn)(const void*, __truk_u64);
	int (*cmpFn)(const void*, const void*, __truk_u64);
};

struct __truk_map_iter_state {
	__truk_u64 index;
};

static __truk_u64 __truk_map_hash_bytes(const void* p, __truk_u64 n) {
	const unsigned char* b = (const unsigned char*)p;
	__truk_u64 h = 1469598103934665603ULL;
	for (__truk_u64 i = 0; i < n; i++) {
		h ^= b[i];
		h *= 1099511628211ULL;
	}
	return h;
}

static __truk_u64 __truk_map_hash_str(const void* key, __truk_u64 keySize) {
	(void)keySize;
	const char* s = *(const char* const*)key;
	return __truk_map_hash_bytes(s, strlen(s));
}

static __truk_u64 __truk_map_hash_mem(const void* key, __truk_u64 keySize) {
	return __truk_map_hash_bytes(key, keySize);
}

static __truk_u64 __truk_map_hash_i8(const void* key, __truk_u64 keySize)  { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_i16(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_i32(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_i64(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_u8(const void* key, __truk_u64 keySize)  { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_u16(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_u32(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_u64(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_f32(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_f64(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }
static __truk_u64 __truk_map_hash_bool(const void* key, __truk_u64 keySize) { return __truk_map_hash_bytes(key, keySize); }

static int __truk_map_cmp_str(const void* a, const void* b, __truk_u64 keySize) {
	(void)keySize;
	return strcmp(*(const char* const*)a, *(const char* const*)b) == 0;
}

static int __truk_map_cmp_mem(const void* a, const void* b, __truk_u64 keySize) {
	return memcmp(a, b, keySize) == 0;
}

static void __truk_map_init_generic(struct __truk_map_generic* m, __truk_u64 keySize, __truk_u64 valSize,
		__truk_u64 (*hashFn)(const void*, __truk_u64), int (*cmpFn)(const void*, const void*, __truk_u64)) {
	m->bucketCount = 16;
	m->count = 0;
	m->keySize = keySize;
	m->valSize = valSize;
	m->hashFn = hashFn;
	m->cmpFn = cmpFn;
	m->entries = (unsigned char*)calloc(m->bucketCount, 1 + keySize + valSize);
	if (!m->entries) {
		__truk_panic("allocation failure");
	}
}

static void __truk_map_deinit_generic(struct __truk_map_generic* m) {
	free(m->entries);
	m->entries = NULL;
	m->bucketCount = 0;
	m->count = 0;
}

static void __truk_map_set_generic(struct __truk_map_generic* m, const void* key, const void* value) {
	if (m->bucketCount == 0) {
		__truk_panic("map used before init");
	}
	if ((m->count + 1) * 4 >= m->bucketCount * 3) {
		struct __truk_map_generic old = *m;
		m->bucketCount = old.bucketCount * 2;
		m->count = 0;
		m->entries = (unsigned char*)calloc(m->bucketCount, 1 + m->keySize + m->valSize);
		if (!m->entries) {
			__truk_panic("allocation failure");
		}
		__truk_u64 oldStride = 1 + old.keySize + old.valSize;
		for (__truk_u64 i = 0; i < old.bucketCount; i++) {
			unsigned char* e = old.entries + i * oldStride;
			if (e[0] == 1) {
				__truk_map_set_generic(m, e + 1, e + 1 + old.keySize);
			}
		}
		free(old.entries);
	}
	__truk_u64 stride = 1 + m->keySize + m->valSize;
	__truk_u64 h = m->hashFn(key, m->keySize) % m->bucketCount;
	for (__truk_u64 probe = 0; probe < m->bucketCount; probe++) {
		__truk_u64 i = (h + probe) % m->bucketCount;
		unsigned char* e = m->entries + i * stride;
		if (e[0] != 1 || m->cmpFn(e + 1, key, m->keySize)) {
			if (e[0] != 1) {
				m->count++;
			}
			e[0] = 1;
			memcpy(e + 1, key, m->keySize);
			memcpy(e + 1 + m->keySize, value, m->valSize);
			return;
		}
	}
	__truk_panic("map is full");
}

static void* __truk_map_get_generic(struct __truk_map_generic* m, const void* key) {
	if (m->bucketCount == 0) {
		return NULL;
	}
	__truk_u64 stride = 1 + m->keySize + m->valSize;
	__truk_u64 h = m->hashFn(key, m->keySize) % m->bucketCount;
	for (__truk_u64 probe = 0; probe < m->bucketCount; probe++) {
		__truk_u64 i = (h + probe) % m->bucketCount;
		unsigned char* e = m->entries + i * stride;
		if (e[0] == 0) {
			return NULL;
		}
		if (e[0] == 1 && m->cmpFn(e + 1, key, m->keySize)) {
			return e + 1 + m->keySize;
		}
	}
	return NULL;
}

static void __truk_map_remove_generic(struct __truk_map_generic* m, const void* key) {
	if (m->bucketCount == 0) {
		return;
	}
	__truk_u64 stride = 1 + m->keySize + m->valSize;
	__truk_u64 h = m->hashFn(key, m->keySize) % m->bucketCount;
	for (__truk_u64 probe = 0; probe < m->bucketCount; probe++) {
		__truk_u64 i = (h + probe) % m->bucketCount;
		unsigned char* e = m->entries + i * stride;
		if (e[0] == 0) {
			return;
		}
		if (e[0] == 1 && m->cmpFn(e + 1, key, m->keySize)) {
			e[0] = 2;
			m->count--;
			return;
		}
	}
}

static struct __truk_map_iter_state __truk_map_iter(void) {
	struct __truk_map_iter_state it;
	it.index = 0;
	return it;
}

static void* __truk_map_next_generic(struct __truk_map_generic* m, struct __truk_map_iter_state* it) {
	__truk_u64 stride = 1 + m->keySize + m->valSize;
	while (it->index < m->bucketCount) {
		unsigned char* e = m->entries + it->index * stride;
		it->index++;
		if (e[0] == 1) {
			return e + 1;
		}
	}
	return NULL;
}

`
