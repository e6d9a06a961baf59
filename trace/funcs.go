// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace

// FuncNames is the fixed, append-only table of known intercepted
// functions, in func_id order: 66 POSIX calls, 61 MPI / MPI-IO calls,
// then the HDF5 calls. UserFunc is the reserved id for a call that
// doesn't match any wrapper in this table (spec.md §3's "reserved
// value for user functions").
var FuncNames = []string{
	// POSIX I/O - 66 functions
	"creat", "creat64", "open", "open64", "close",
	"write", "read", "lseek", "lseek64", "pread",
	"pread64", "pwrite", "pwrite64", "readv", "writev",
	"mmap", "mmap64", "fopen", "fopen64", "fclose",
	"fwrite", "fread", "ftell", "fseek", "fsync",
	"fdatasync", "__xstat", "__xstat64", "__lxstat", "__lxstat64",
	"__fxstat", "__fxstat64", "getcwd", "mkdir", "rmdir",
	"chdir", "link", "linkat", "unlink", "symlink",
	"symlinkat", "readlink", "readlinkat", "rename", "chmod",
	"chown", "lchown", "utime", "opendir", "readdir",
	"closedir", "rewinddir", "mknod", "mknodat", "fcntl",
	"dup", "dup2", "pipe", "mkfifo", "umask",
	"fdopen", "fileno", "access", "faccessat", "tmpfile",
	"remove",

	// MPI I/O - 61 functions
	"PMPI_File_close", "PMPI_File_set_size", "PMPI_File_iread_at",
	"PMPI_File_iread", "PMPI_File_iread_shared", "PMPI_File_iwrite_at",
	"PMPI_File_iwrite", "PMPI_File_iwrite_shared", "PMPI_File_open",
	"PMPI_File_read_all_begin", "PMPI_File_read_all", "PMPI_File_read_at_all",
	"PMPI_File_read_at_all_begin", "PMPI_File_read_at", "PMPI_File_read",
	"PMPI_File_read_ordered_begin", "PMPI_File_read_ordered", "PMPI_File_read_shared",
	"PMPI_File_set_view", "PMPI_File_sync", "PMPI_File_write_all_begin",
	"PMPI_File_write_all", "PMPI_File_write_at_all_begin", "PMPI_File_write_at_all",
	"PMPI_File_write_at", "PMPI_File_write", "PMPI_File_write_ordered_begin",
	"PMPI_File_write_ordered", "PMPI_File_write_shared", "PMPI_Finalize",
	"PMPI_Finalized", "PMPI_Init", "PMPI_Init_thread",
	"PMPI_Wtime", "PMPI_Comm_rank", "PMPI_Comm_size",
	"PMPI_Get_processor_name", "PMPI_Get_processor_name", "PMPI_Comm_set_errhandler",
	"PMPI_Barrier", "PMPI_Bcast", "PMPI_Gather",
	"PMPI_Gatherv", "PMPI_Scatter", "PMPI_Scatterv",
	"PMPI_Allgather", "PMPI_Allgatherv", "PMPI_Alltoall",
	"PMPI_Reduce", "PMPI_Allreduce", "PMPI_Reduce_scatter",
	"PMPI_Scan", "PMPI_Type_commit", "PMPI_Type_contiguous",
	"PMPI_Type_extent", "PMPI_Type_free", "PMPI_Type_hindexed",
	"PMPI_Op_create", "PMPI_Op_free", "PMPI_Type_get_envelope",
	"PMPI_Type_size",

	// HDF5 I/O
	"H5Fcreate",
	"H5Fopen", "H5Fclose",
	"H5Gclose",
	"H5Gcreate1", "H5Gcreate2",
	"H5Gget_objinfo", "H5Giterate",
	"H5Gopen1", "H5Gopen2",
	"H5Dclose",
	"H5Dcreate1", "H5Dcreate2",
	"H5Dget_create_plist", "H5Dget_space",
	"H5Dget_type", "H5Dopen1",
	"H5Dopen2", "H5Dread",
	"H5Dwrite",
	"H5Sclose",
	"H5Screate", "H5Screate_simple",
	"H5Sget_select_npoints", "H5Sget_simple_extent_dims",
	"H5Sget_simple_extent_npoints", "H5Sselect_elements",
	"H5Sselect_hyperslab", "H5Sselect_none",
	"H5Tclose",
	"H5Tcopy", "H5Tget_class",
	"H5Tget_size", "H5Tset_size",
	"H5Tcreate", "H5Tinsert",
	"H5Aclose",
	"H5Acreate1", "H5Acreate2",
	"H5Aget_name", "H5Aget_num_attrs",
	"H5Aget_space", "H5Aget_type",
	"H5Aopen", "H5Aopen_idx",
	"H5Aopen_name", "H5Aread",
	"H5Awrite",
	"H5Pclose",
	"H5Pcreate", "H5Pget_chunk",
	"H5Pget_mdc_config", "H5Pset_alignment",
	"H5Pset_chunk", "H5Pset_dxpl_mpio",
	"H5Pset_fapl_core", "H5Pset_fapl_mpio",
	"H5Pset_fapl_mpiposix", "H5Pset_istore_k",
	"H5Pset_mdc_config", "H5Pset_meta_block_size",
	"H5Lexists",
	"H5Lget_val", "H5Literate",
	"H5Oclose",
	"H5Oget_info", "H5Oget_info_by_name",
	"H5Oopen",
}

// UserFunc is the func_id a wrapper uses for a call that has no entry
// in FuncNames (e.g. a user-registered function, recorded through the
// same pipeline so its timing and call-depth are still captured; its
// real name travels in the call signature's arguments instead and may
// be a mangled C++ symbol, demangled when written to recorder.mt).
const UserFunc = uint8(len(FuncNames))
